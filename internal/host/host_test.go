package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxguide/internal/catalog"
	"voxguide/internal/config"
	"voxguide/internal/engine"
	"voxguide/internal/logging"
	"voxguide/internal/nlu"
)

func TestCatalog(t *testing.T) {
	c, err := Catalog("")
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().Len(), c.Len())

	path := filepath.Join(t.TempDir(), "cmds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - patterns: ["open map"]
    action: "navigate:/navigation"
    description: "Open the map"
`), 0o644))

	c, err = Catalog(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Catalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "load catalog")
}

func TestFallback(t *testing.T) {
	fb, err := Fallback(config.Fallback{}, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, fb)

	fb, err = Fallback(config.Fallback{APIKey: "sk-test", Proxy: "127.0.0.1:1080"}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &nlu.Classifier{}, fb)
}

func TestEngineOptions(t *testing.T) {
	cfg := &config.Config{Speech: config.Speech{Rate: 1, Pitch: 1.2, Volume: 0.5}}
	opts, err := EngineOptions(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	assert.Equal(t, engine.Voice{Rate: 1, Pitch: 1.2, Volume: 0.5}, Voice(cfg.Speech))

	cfg.Fallback = config.Fallback{APIKey: "sk-test", Timeout: time.Second}
	opts, err = EngineOptions(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}
