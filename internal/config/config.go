// Package config handles Triomail configuration loading and validation.
//
// A *Config is constructed once at process start and passed by reference to
// every component that reads it. There is no package-level mutable state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for the Triomail client.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Feed settings for the server push channel.
	Feed FeedConfig `yaml:"feed" mapstructure:"feed"`

	// Prefs settings for the navigation preference store.
	Prefs PrefsConfig `yaml:"prefs" mapstructure:"prefs"`

	// Catalog settings for the inbox-source catalog.
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`

	// Sidebar settings for the navigation model.
	Sidebar SidebarConfig `yaml:"sidebar" mapstructure:"sidebar"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// GlobalConfig contains global client settings.
type GlobalConfig struct {
	// DataDir is where the client stores its data (default: ~/.local/share/triomail).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/triomail).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// FeedConfig contains push-feed connection settings.
type FeedConfig struct {
	// Addr is the feed endpoint (tcp://host:port or unix:///path).
	Addr string `yaml:"addr" mapstructure:"addr"`

	// DialTimeout is the per-attempt connection timeout.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReconnectInterval is the delay between reconnection attempts.
	ReconnectInterval time.Duration `yaml:"reconnect_interval" mapstructure:"reconnect_interval"`
}

// PrefsConfig contains preference-store settings.
type PrefsConfig struct {
	// Path is the SQLite preference database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// CatalogConfig contains inbox-source catalog settings.
type CatalogConfig struct {
	// Path is the exported account-configuration file.
	Path string `yaml:"path" mapstructure:"path"`
}

// SidebarConfig contains navigation model settings.
type SidebarConfig struct {
	// VirtualizeThreshold is the source count above which the list is truncated.
	VirtualizeThreshold int `yaml:"virtualize_threshold" mapstructure:"virtualize_threshold"`

	// VirtualizeMax is the maximum number of sources rendered once truncating.
	VirtualizeMax int `yaml:"virtualize_max" mapstructure:"virtualize_max"`

	// PagerSize is the default message-list page size.
	PagerSize int `yaml:"pager_size" mapstructure:"pager_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "triomail"),
			ConfigDir: filepath.Join(homeDir, ".config", "triomail"),
		},
		Feed: FeedConfig{
			Addr:              "tcp://127.0.0.1:8743",
			DialTimeout:       2 * time.Second,
			ReconnectInterval: 2 * time.Second,
		},
		Prefs: PrefsConfig{
			Path:          "", // Will be set to DataDir/prefs.db
			BusyTimeoutMs: 5000,
		},
		Catalog: CatalogConfig{
			Path: "", // Will be set to DataDir/sources.json
		},
		Sidebar: SidebarConfig{
			VirtualizeThreshold: 20,
			VirtualizeMax:       30,
			PagerSize:           50,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Feed.Addr == "" {
		return fmt.Errorf("feed.addr is required")
	}

	if c.Feed.DialTimeout < 100*time.Millisecond {
		return fmt.Errorf("feed.dial_timeout must be at least 100ms")
	}

	if c.Feed.ReconnectInterval < 100*time.Millisecond {
		return fmt.Errorf("feed.reconnect_interval must be at least 100ms")
	}

	if c.Sidebar.VirtualizeThreshold < 1 {
		return fmt.Errorf("sidebar.virtualize_threshold must be at least 1")
	}

	if c.Sidebar.VirtualizeMax < c.Sidebar.VirtualizeThreshold {
		return fmt.Errorf("sidebar.virtualize_max must be >= sidebar.virtualize_threshold")
	}

	if c.Sidebar.PagerSize < 1 {
		return fmt.Errorf("sidebar.pager_size must be at least 1")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// PrefsPath returns the full preference database path.
func (c *Config) PrefsPath() string {
	if c.Prefs.Path != "" {
		return c.Prefs.Path
	}
	return filepath.Join(c.Global.DataDir, "prefs.db")
}

// CatalogPath returns the full source-catalog file path.
func (c *Config) CatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.Global.DataDir, "sources.json")
}
