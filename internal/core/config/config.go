// Package config handles configuration loading and validation for remarks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	App       AppConfig       `yaml:"app"`
	SandboxID string          `yaml:"sandbox_id"`
	User      UserConfig      `yaml:"user"`
	Workspace string          `yaml:"workspace"`
	TUI       TUIConfig       `yaml:"tui"`
	DevServer DevServerConfig `yaml:"dev_server"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// APIConfig configures the GraphQL endpoint.
type APIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"` // transport timeout, 0 = none
}

// AppConfig configures links back into the web application.
type AppConfig struct {
	BaseURL string `yaml:"base_url"`
}

// UserConfig is the signed-in user's profile used for optimistic comments.
type UserConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Username  string `yaml:"username"`
	AvatarURL string `yaml:"avatar_url"`
}

// TUIConfig configures the interactive viewer.
type TUIConfig struct {
	ToastTTL time.Duration `yaml:"toast_ttl"`
	Filter   string        `yaml:"filter"`
	Theme    string        `yaml:"theme"`
}

// DevServerConfig configures the local API server.
type DevServerConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Endpoint: "http://localhost:4000/graphql",
		},
		App: AppConfig{
			BaseURL: "http://localhost:4000",
		},
		Workspace: ".",
		TUI: TUIConfig{
			ToastTTL: 5 * time.Second,
			Filter:   string(comment.FilterOpen),
			Theme:    styles.DefaultTheme,
		},
		DevServer: DevServerConfig{
			Addr:    "127.0.0.1:4000",
			Metrics: true,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.Endpoint == "" {
		c.API.Endpoint = defaults.API.Endpoint
	}
	if c.App.BaseURL == "" {
		c.App.BaseURL = defaults.App.BaseURL
	}
	if c.Workspace == "" {
		c.Workspace = defaults.Workspace
	}
	if c.TUI.ToastTTL == 0 {
		c.TUI.ToastTTL = defaults.TUI.ToastTTL
	}
	if c.TUI.Filter == "" {
		c.TUI.Filter = defaults.TUI.Filter
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = defaults.DevServer.Addr
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	if c.TUI.ToastTTL < 0 {
		return fmt.Errorf("tui.toast_ttl cannot be negative")
	}

	if !comment.Filter(c.TUI.Filter).IsValid() {
		return fmt.Errorf("tui.filter has invalid value %q", c.TUI.Filter)
	}

	if _, ok := styles.GetPalette(c.TUI.Theme); !ok {
		return fmt.Errorf("tui.theme has invalid value %q (want one of %s)", c.TUI.Theme, strings.Join(styles.ThemeNames(), ", "))
	}

	return nil
}

// CommentUser returns the configured user as a comment author, or nil when
// no user id is configured.
func (c *Config) CommentUser() *comment.User {
	if c.User.ID == "" {
		return nil
	}
	return &comment.User{
		ID:        c.User.ID,
		Name:      c.User.Name,
		Username:  c.User.Username,
		AvatarURL: c.User.AvatarURL,
	}
}

// DatabasePath returns the path of the notification database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "remarks.db")
}

// DevServerDatabasePath returns the path of the dev server's comment database.
func (c *Config) DevServerDatabasePath() string {
	return filepath.Join(c.DataDir, "devserver.db")
}
