package traffic

import (
	"testing"

	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMix(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Mix
		wantErr bool
	}{
		{"weights", "index=4,slow=1", Mix{"index": 4, "slow": 1}, false},
		{"bare names", "index,error", Mix{"index": 1, "error": 1}, false},
		{"spaces", " index = 2 , not_found=3 ", Mix{"index": 2, "not_found": 3}, false},
		{"repeated adds", "index=1,index=2", Mix{"index": 3}, false},
		{"zero weight kept", "index=1,slow=0", Mix{"index": 1, "slow": 0}, false},
		{"bad weight", "index=x", nil, true},
		{"negative", "index=-1", nil, true},
		{"empty", "", nil, true},
		{"all zero", "index=0", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMix(tt.in)
			if tt.wantErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMix_String(t *testing.T) {
	assert.Equal(t, "error=2,index=5,not_found=2,slow=1", DefaultMix().String())
}

func TestPicker_Deterministic(t *testing.T) {
	table := testapp.DefaultTable()
	a, err := NewPicker(table, DefaultMix(), DefaultNotFoundRegex, 42)
	require.Nil(t, err)
	b, err := NewPicker(table, DefaultMix(), DefaultNotFoundRegex, 42)
	require.Nil(t, err)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Next().Route.Name, b.Next().Route.Name)
	}
}

func TestPicker_Weights(t *testing.T) {
	table := testapp.DefaultTable()
	p, err := NewPicker(table, Mix{"slow": 1, "error": 0}, "", 1)
	require.Nil(t, err)
	for i := 0; i < 20; i++ {
		exp := p.Next()
		assert.Equal(t, "slow", exp.Route.Name)
		assert.Equal(t, "/slow", exp.Path)
	}

	_, err = NewPicker(table, Mix{"error": 0}, "", 1)
	assert.NotNil(t, err)
}

func TestPicker_NotFoundPaths(t *testing.T) {
	table := testapp.DefaultTable()
	tests := []struct {
		name  string
		regex string
	}{
		{"default regex", DefaultNotFoundRegex},
		{"regex that only yields routed paths", `/(slow|error)`},
		{"regex that yields unsafe paths", `/\.\./[a-z]`},
		{"no regex", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPicker(table, Mix{"not_found": 1}, tt.regex, 7)
			require.Nil(t, err)
			for i := 0; i < 25; i++ {
				exp := p.Next()
				assert.True(t, plainPath(exp.Path), exp.Path)
				assert.Equal(t, testapp.NotFoundRoute, table.Lookup([]byte(exp.Path)).Name, exp.Path)
			}
		})
	}
}

func TestPicker_BadRegex(t *testing.T) {
	_, err := NewPicker(testapp.DefaultTable(), DefaultMix(), "/[a-", 1)
	assert.NotNil(t, err)
}

func TestPlainPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/abc", true},
		{"/abc/d-e_f.g~", true},
		{"/", false},
		{"", false},
		{"abc", false},
		{"//abc", false},
		{"/abc/", false},
		{"/./abc", false},
		{"/abc/..", false},
		{"/a b", false},
		{"/a%20b", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, plainPath(tt.path))
		})
	}
}
