package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		opts       []ConfigOption
		wantFields string
	}{
		{"defaults with host", []ConfigOption{Host("127.0.0.1:8080")}, ""},
		{"missing host", nil, "Host"},
		{"host without port", []ConfigOption{Host("localhost")}, "Host"},
		{"no bound", []ConfigOption{Host("h:1"), Requests(0)}, "Requests, Duration"},
		{"bad concurrency", []ConfigOption{Host("h:1"), Concurrency(0)}, "Concurrency"},
		{"bad timeout", []ConfigOption{Host("h:1"), Timeout(0)}, "Timeout"},
		{"empty mix", []ConfigOption{Host("h:1"), WithMix(Mix{})}, "Mix"},
		{"unknown route", []ConfigOption{Host("h:1"), WithMix(Mix{"index": 1, "missing": 1})}, "Mix.missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig()
			for _, o := range tt.opts {
				o(c)
			}
			err := c.Validate()
			if tt.wantFields == "" {
				assert.Nil(t, err)
				return
			}
			if assert.NotNil(t, err) {
				assert.Equal(t, "config has invalid values in: "+tt.wantFields, err.Error())
			}
		})
	}
}

func TestConfig_ValidateDefaultsProgress(t *testing.T) {
	c := NewDefaultConfig()
	c.Host = "h:1"
	c.Progress = nil
	c.MaxErrors = -1
	assert.Nil(t, c.Validate())
	assert.NotNil(t, c.Progress)
	assert.Equal(t, 0, c.MaxErrors)
}
