package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/stressnet-go/internal/buildinfo"
)

const testConfig = `
main:
  name: root-test
model:
  path: model/stress_cnn.tflite
audio:
  formats: [wav]
webserver:
  enabled: true
  port: "9090"
  maxuploadsize: 5
logging:
  default_level: warn
  console:
    enabled: true
    level: warn
`

// Uses the global viper instance, so not parallel.
func TestRootCommandFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var out bytes.Buffer
	root, cleanup := RootCommand(buildinfo.NewContext("1.0.0", "2026-01-01"))
	t.Cleanup(cleanup)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config", "--config", path, "--model", "other.tflite"})

	require.NoError(t, root.ExecuteContext(t.Context()))

	text := out.String()
	assert.Contains(t, text, "name: root-test")
	assert.Contains(t, text, "path: other.tflite")
	assert.Contains(t, text, `port: "9090"`)
}

func TestRootCommandVersion(t *testing.T) {
	var out bytes.Buffer
	root, cleanup := RootCommand(buildinfo.NewContext("1.2.3", "2026-01-01"))
	t.Cleanup(cleanup)
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.ExecuteContext(t.Context()))
	assert.Equal(t, "StressNet-Go 1.2.3 (built 2026-01-01)\n", out.String())
}

// A failing subcommand skips cobra's post-run hooks; cleanup must still
// flush the buffered log file.
func TestCleanupFlushesLogAfterFailure(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "stressnet.log")
	cfg := fmt.Sprintf(`
model:
  path: model/stress_cnn.tflite
logging:
  default_level: debug
  console:
    enabled: false
  file_output:
    enabled: true
    path: %q
    level: debug
`, logPath)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	root, cleanup := RootCommand(buildinfo.NewContext("1.0.0", "2026-01-01"))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"file", "--config", cfgPath, "--format", "xml", "clip.wav"})

	require.Error(t, root.ExecuteContext(t.Context()))
	cleanup()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "configuration loaded")
}
