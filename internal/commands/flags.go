package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colonyops/remarks/internal/app"
	"github.com/colonyops/remarks/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Sandbox    string
	Token      string

	// ProfilerPort enables the pprof endpoint when positive
	ProfilerPort int

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// App holds the comment service. It is built by LoadApp.
	App *app.App
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "remarks", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "remarks")
}

// LoadApp builds the App on first use. Commands that only inspect
// configuration never open the database or the workspace.
func (f *Flags) LoadApp(ctx context.Context) (*app.App, error) {
	if f.App != nil {
		return f.App, nil
	}
	a, err := app.New(ctx, f.Config, app.Options{})
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	f.App = a
	return a, nil
}
