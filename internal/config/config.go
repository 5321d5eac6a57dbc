package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Colors struct {
	Primary   string `toml:"primary"`
	Secondary string `toml:"secondary"`
	Fallback  string `toml:"fallback"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

type Config struct {
	OutputRoot  string   `toml:"output_root"`
	DefaultName string   `toml:"default_name"`
	Lang        string   `toml:"lang"`
	FaviconURL  string   `toml:"favicon_url"`
	Markers     []string `toml:"markers"`
	History     bool     `toml:"history"`
	DBPath      string   `toml:"db_path"`
	Colors      Colors   `toml:"colors"`
	Log         Log      `toml:"log"`
}

// Dir returns the configuration directory under home.
func Dir(home string) string {
	return filepath.Join(home, ".config", "whatshtml")
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(Dir(home), "config.toml"), nil
}

// Default returns the built-in configuration. Exports land in the current
// working directory.
func Default(home string) *Config {
	return &Config{
		OutputRoot:  ".",
		DefaultName: "chat_export",
		Lang:        "cs",
		FaviconURL:  "https://www.google.com/s2/favicons?sz=64&domain_url=%s",
		Markers:     []string{"(soubor byl přiložen)", "(file attached)", "(Datei angehängt)"},
		History:     true,
		DBPath:      filepath.Join(Dir(home), "history.db"),
		Colors: Colors{
			Primary:   "#add8e6",
			Secondary: "#90ee90",
			Fallback:  "#90ee90",
		},
		Log: Log{Level: "info", Format: "console"},
	}
}

// Load reads the config at path over the defaults. An empty path means
// DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(Dir(home), "config.toml")
	}

	cfg := Default(home)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg.OutputRoot = expandHome(cfg.OutputRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
