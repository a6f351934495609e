// Package commands implements the tablesync CLI subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"

	"github.com/andreyvit/tablesync/internal/config"
)

// Globals holds the persistent root flags. Non-zero flag values override the
// loaded configuration.
type Globals struct {
	ConfigPath string
	DBPath     string
	NoColor    bool
	Verbose    bool
}

func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	if g.DBPath != "" {
		cfg.DB.Path = g.DBPath
	}

	if g.NoColor {
		cfg.Output.Color = false
	}

	if g.Verbose {
		cfg.Output.Verbose = true
	}

	if !cfg.Output.Color {
		color.NoColor = true //nolint:reassign // library global
	}

	return cfg, nil
}

// logf adapts a slog logger to the printf-style hook the library accepts.
// Messages are logged at debug level, so they only show up in verbose mode.
func logf(w io.Writer, verbose bool) func(format string, args ...any) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	return func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}
