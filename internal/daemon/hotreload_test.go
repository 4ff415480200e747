package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chatportraits/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portraitd.toml")
	writeFile(t, path, "[portrait]\nwidth_px = 320\n")

	initial, err := config.LoadConfig(path)
	require.NoError(t, err)

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)

	reloaded := make(chan *config.DaemonConfig, 4)
	w.SetReloadCallback(func(cfg *config.DaemonConfig) { reloaded <- cfg })
	w.SetErrorCallback(func(err error) { t.Errorf("unexpected error: %v", err) })

	require.NoError(t, w.Start(initial))
	defer w.Stop()
	assert.Same(t, initial, w.GetCurrentConfig())

	writeFile(t, path, "[portrait]\nwidth_px = 400\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 400, cfg.Portrait.WidthPx)
		assert.Equal(t, 400, w.GetCurrentConfig().Portrait.WidthPx)
	case <-time.After(3 * time.Second):
		t.Fatal("config not reloaded")
	}
}

func TestConfigWatcher_InvalidConfigKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portraitd.toml")
	writeFile(t, path, "[portrait]\nwidth_px = 320\n")

	initial, err := config.LoadConfig(path)
	require.NoError(t, err)

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)

	errs := make(chan error, 4)
	w.SetErrorCallback(func(err error) { errs <- err })

	require.NoError(t, w.Start(initial))
	defer w.Stop()

	writeFile(t, path, "[portrait]\nwidth_px = 1\n")

	select {
	case err := <-errs:
		assert.Error(t, err)
		assert.Same(t, initial, w.GetCurrentConfig())
	case <-time.After(3 * time.Second):
		t.Fatal("validation error not reported")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portraitd.toml")

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)
	reloaded := make(chan struct{}, 1)
	w.SetReloadCallback(func(*config.DaemonConfig) { reloaded <- struct{}{} })

	require.NoError(t, w.Start(config.DefaultDaemonConfig()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1\n")

	select {
	case <-reloaded:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "portraitd.toml"), nil)
	w.Stop()
	require.NoError(t, w.Start(config.DefaultDaemonConfig()))
	w.Stop()
	w.Stop()
}
