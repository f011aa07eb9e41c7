package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "emixa.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sbt", cfg.Harness.Command)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.True(t, cfg.Catalog.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Harness.TimeoutDuration())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emixa.yaml")
	content := `harness:
  command: mill
  args: ["--no-server"]
  dir: /srv/characterizer
  timeout: 30m
output:
  dir: /srv/characterizer/output
catalog:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mill", cfg.Harness.Command)
	assert.Equal(t, []string{"--no-server"}, cfg.Harness.Args)
	assert.Equal(t, "/srv/characterizer", cfg.Harness.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Harness.TimeoutDuration())
	assert.Equal(t, "/srv/characterizer/output", cfg.Output.Dir)
	assert.False(t, cfg.Catalog.Enabled)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emixa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("harness: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestTimeoutDurationFallback(t *testing.T) {
	assert.Equal(t, 10*time.Minute, HarnessConfig{Timeout: "soon"}.TimeoutDuration())
	assert.Equal(t, 10*time.Minute, HarnessConfig{Timeout: "-5m"}.TimeoutDuration())
	assert.Equal(t, 45*time.Second, HarnessConfig{Timeout: "45s"}.TimeoutDuration())
}
