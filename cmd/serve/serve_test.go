package serve

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/errors"
)

func TestRunRejectsDisabledWebServer(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.WebServer.Enabled = false

	err := Run(t.Context(), settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRunFailsWithoutModel(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.WebServer.Enabled = true
	settings.Model.Path = filepath.Join(t.TempDir(), "missing.tflite")
	settings.Features = conf.FeatureSettings{SampleRate: 22050, Offset: 0.5, Duration: 3.0, NMFCC: 40}
	settings.Audio.Formats = []string{"wav"}

	err := Run(t.Context(), settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
}
