package participant

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Override is one participant entry in an overrides file.
type Override struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// Overrides are participant edits gathered ahead of a run, keyed by sender.
type Overrides struct {
	Primary      string              `yaml:"primary"`
	Participants map[string]Override `yaml:"participants"`
}

// LoadOverrides reads a YAML overrides file.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read participants file: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes YAML overrides and validates colors.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse participants file: %w", err)
	}
	for key, p := range o.Participants {
		if p.Color != "" && !ValidColor(p.Color) {
			return nil, fmt.Errorf("participant %q: %w: %q", key, ErrInvalidColor, p.Color)
		}
	}
	return &o, nil
}

// Apply writes the overrides into r. Keys that r does not know are returned
// rather than treated as errors, since one file may serve several chats. The
// primary may be given as a display name or a sender key.
func (o *Overrides) Apply(r *Registry) (unknown []string, err error) {
	for _, key := range r.Keys() {
		p, ok := o.Participants[key]
		if !ok {
			continue
		}
		if err := r.Rename(key, p.Name); err != nil {
			return nil, err
		}
		if err := r.SetColor(key, p.Color); err != nil {
			return nil, err
		}
	}
	for key := range o.Participants {
		if _, ok := r.Get(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	if o.Primary != "" {
		if err := r.SetPrimary(o.Primary); err != nil {
			s, ok := r.Get(o.Primary)
			if !ok {
				return unknown, err
			}
			if err := r.SetPrimary(s.DisplayName); err != nil {
				return unknown, err
			}
		}
	}
	return unknown, nil
}
