package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/Zuo-Peng/whatshtml/internal/config"
	"github.com/Zuo-Peng/whatshtml/internal/export"
	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/logging"
	"github.com/Zuo-Peng/whatshtml/internal/scan"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

type app struct {
	cfg    *config.Config
	logger logging.Logger
}

// load reads the config and builds the logger; flags override the file.
func (f *globalFlags) load() (*app, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	logger := logging.NewLogger(&logging.Config{
		Level:      logging.Level(cfg.Log.Level),
		JSONFormat: cfg.Log.Format == "json",
		Output:     os.Stderr,
	})
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) openHistory() (*index.DB, error) {
	db, err := index.OpenDB(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return db, nil
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or 0 when it cannot be told.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func describeError(err error) string {
	var ioErr *export.IOError
	switch {
	case errors.Is(err, scan.ErrNoTranscript):
		return "No transcript found: pass the exported .txt file or the .zip that contains it."
	case errors.As(err, &ioErr):
		return fmt.Sprintf("Export failed: could not %s %s: %v", ioErr.Op, ioErr.Path, ioErr.Err)
	default:
		return "Error: " + err.Error()
	}
}

func exitCode(err error) int {
	if errors.Is(err, export.ErrBusy) {
		return 2
	}
	return 1
}
