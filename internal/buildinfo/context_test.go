package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{"nil context", nil, UnknownValue},
		{"empty version", NewContext("", "2026-01-01"), UnknownValue},
		{"release", NewContext("1.0.0", "2026-01-01"), "1.0.0"},
		{"pre-release", NewContext("1.0.0-beta.1", ""), "1.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctx.Version())
		})
	}
}

func TestContextBuildDate(t *testing.T) {
	t.Parallel()

	var nilCtx *Context
	assert.Equal(t, UnknownValue, nilCtx.BuildDate())
	assert.Equal(t, UnknownValue, NewContext("1.0.0", "").BuildDate())
	assert.Equal(t, "2026-01-01", NewContext("1.0.0", "2026-01-01").BuildDate())
}

func TestContextStrings(t *testing.T) {
	t.Parallel()

	ctx := NewContext("1.2.3", "2026-01-01")
	assert.Equal(t, "stressnet-go@1.2.3", ctx.Release())
	assert.Equal(t, "StressNet-Go 1.2.3 (built 2026-01-01)", ctx.String())

	var nilCtx *Context
	assert.Equal(t, "stressnet-go@unknown", nilCtx.Release())
}
