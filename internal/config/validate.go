package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Zuo-Peng/whatshtml/internal/participant"
)

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.OutputRoot) == "" {
		errs = append(errs, errors.New("output_root must not be empty"))
	}
	if strings.TrimSpace(c.DefaultName) == "" {
		errs = append(errs, errors.New("default_name must not be empty"))
	}
	if strings.Count(c.FaviconURL, "%s") != 1 || strings.Count(c.FaviconURL, "%") != 1 {
		errs = append(errs, fmt.Errorf("favicon_url must contain exactly one %%s: %q", c.FaviconURL))
	}
	if c.History && strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db_path must be set when history is enabled"))
	}
	for i, m := range c.Markers {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("markers[%d] is empty", i))
		}
	}
	for name, v := range map[string]string{
		"colors.primary":   c.Colors.Primary,
		"colors.secondary": c.Colors.Secondary,
		"colors.fallback":  c.Colors.Fallback,
	} {
		if !participant.ValidColor(v) {
			errs = append(errs, fmt.Errorf("%s must be #rgb or #rrggbb: %q", name, v))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not console or json", c.Log.Format))
	}

	return errors.Join(errs...)
}
