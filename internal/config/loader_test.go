package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	require.Equal(t, "tcp://127.0.0.1:8743", cfg.Feed.Addr)
	require.Equal(t, 2*time.Second, cfg.Feed.DialTimeout)
	require.Equal(t, 20, cfg.Sidebar.VirtualizeThreshold)
	require.Equal(t, 30, cfg.Sidebar.VirtualizeMax)
	require.Equal(t, 50, cfg.Sidebar.PagerSize)
	require.Equal(t, 5000, cfg.Prefs.BusyTimeoutMs)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
feed:
  addr: unix:///tmp/triomail.sock
  reconnect_interval: 5s
sidebar:
  virtualize_threshold: 10
  virtualize_max: 15
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, "unix:///tmp/triomail.sock", cfg.Feed.Addr)
	require.Equal(t, 5*time.Second, cfg.Feed.ReconnectInterval)
	require.Equal(t, 10, cfg.Sidebar.VirtualizeThreshold)
	require.Equal(t, 15, cfg.Sidebar.VirtualizeMax)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	require.Equal(t, 2*time.Second, cfg.Feed.DialTimeout)
}

func TestLoad_ExplicitFileMissingErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRIOMAIL_FEED_ADDR", "tcp://10.0.0.5:9000")
	t.Setenv("TRIOMAIL_SIDEBAR_PAGER_SIZE", "25")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	require.Equal(t, "tcp://10.0.0.5:9000", cfg.Feed.Addr)
	require.Equal(t, 25, cfg.Sidebar.PagerSize)
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  addr: \"\"\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "feed.addr")
}

func TestValidate_VirtualizeOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sidebar.VirtualizeThreshold = 40
	cfg.Sidebar.VirtualizeMax = 30

	err := cfg.Validate()
	require.Error(t, err)
}

func TestPaths_FallBackToDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.DataDir = "/data/triomail"
	cfg.Prefs.Path = ""
	cfg.Catalog.Path = ""

	require.Equal(t, "/data/triomail/prefs.db", cfg.PrefsPath())
	require.Equal(t, "/data/triomail/sources.json", cfg.CatalogPath())

	cfg.Prefs.Path = "/elsewhere/p.db"
	require.Equal(t, "/elsewhere/p.db", cfg.PrefsPath())
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, "/abs/x", expandTilde("/abs/x"))
	require.Equal(t, "", expandTilde(""))
}
