package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// runs first, before any setter rebuilds the loggers
func TestDefaultLevel(t *testing.T) {
	assert.Equal(t, InfoLevel, GetLevel())
	assert.Equal(t, InfoLevel, Stdout.GetLevel())
	assert.Nil(t, Debug())
	assert.Nil(t, Trace())
	assert.NotNil(t, Info())
}

func TestSetFormat(t *testing.T) {
	defer SetFormat("json")

	tests := []struct {
		name    string
		format  string
		want    LogFormat
		wantErr bool
	}{
		{"empty is json", "", JSON, false},
		{"json", "json", JSON, false},
		{"pretty", "pretty", Pretty, false},
		{"text", "text", Text, false},
		{"unknown", "xml", Text, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetFormat(tt.format)
			if tt.wantErr {
				assert.Equal(t, ErrUnsupportedFormat, err)
			} else {
				assert.Nil(t, err)
			}
			assert.Equal(t, tt.want, GetLogFormat())
		})
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetLevelString("info")

	assert.Nil(t, SetLevelString("error"))
	Info().Msg("hidden")
	assert.Equal(t, 0, buf.Len())

	Error().Msg("visible")
	assert.Contains(t, buf.String(), "visible")

	assert.NotNil(t, SetLevelString("loud"))
}

func TestSetOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	assert.Nil(t, SetFormat("json"))
	Info().Str("route", "slow").Msg("served")
	assert.Contains(t, buf.String(), `"route":"slow"`)
	assert.Contains(t, buf.String(), `"message":"served"`)
}
