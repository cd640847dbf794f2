package logging

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a logger tagged with a "cmp" field. Extra path segments
// name a part of that component and are joined with dots, so
// Component("tui", "watcher") logs as cmp=tui.watcher.
func Component(name string, path ...string) zerolog.Logger {
	if len(path) > 0 {
		name = name + "." + strings.Join(path, ".")
	}
	return log.With().Str("cmp", name).Logger()
}
