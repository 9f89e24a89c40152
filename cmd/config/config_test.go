package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/stressnet-go/internal/conf"
)

func TestConfigCommandRedactsDSN(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Model.Path = "model/stress_cnn.tflite"
	settings.Sentry.Enabled = true
	settings.Sentry.DSN = "https://key@sentry.example.com/1"

	var out bytes.Buffer
	cmd := Command(settings)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.NotContains(t, out.String(), "key@sentry")
	assert.Equal(t, "https://key@sentry.example.com/1", settings.Sentry.DSN, "settings must not be modified")

	var decoded conf.Settings
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "model/stress_cnn.tflite", decoded.Model.Path)
	assert.Equal(t, "[redacted]", decoded.Sentry.DSN)
}
