// Package participant holds per-run sender identity: display names, bubble
// colors and which participant is primary.
package participant

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

var (
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrInvalidColor       = errors.New("invalid color")
)

// Colors are the defaults used when a participant has no explicit color.
type Colors struct {
	Primary   string
	Secondary string
	Fallback  string // senders missing from the registry
}

// DefaultColors matches the classic light-blue / light-green chat look.
var DefaultColors = Colors{
	Primary:   "#add8e6",
	Secondary: "#90ee90",
	Fallback:  "#90ee90",
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether c is a #rgb or #rrggbb color.
func ValidColor(c string) bool {
	return hexColorRe.MatchString(c)
}

// Setting is one participant's identity.
type Setting struct {
	Key         string // sender as it appears in the transcript
	DisplayName string
	Color       string // empty means role default
}

// Registry is the participant table for a single conversion run.
type Registry struct {
	order      []string
	settings   map[string]*Setting
	primaryKey string
	colors     Colors
}

// Build creates one setting per distinct sender, in the given order, with
// the display name defaulting to the sender key. The first sender is primary
// until SetPrimary says otherwise.
func Build(senders []string) *Registry {
	r := &Registry{
		settings: make(map[string]*Setting, len(senders)),
		colors:   DefaultColors,
	}
	for _, key := range senders {
		if _, ok := r.settings[key]; ok {
			continue
		}
		r.order = append(r.order, key)
		r.settings[key] = &Setting{Key: key, DisplayName: key}
	}
	return r
}

// SetDefaultColors replaces the role colors. Empty fields keep the current
// value.
func (r *Registry) SetDefaultColors(c Colors) {
	if c.Primary != "" {
		r.colors.Primary = c.Primary
	}
	if c.Secondary != "" {
		r.colors.Secondary = c.Secondary
	}
	if c.Fallback != "" {
		r.colors.Fallback = c.Fallback
	}
}

// DefaultColors returns the role colors in effect.
func (r *Registry) DefaultColors() Colors {
	return r.colors
}

// Len returns the number of participants.
func (r *Registry) Len() int {
	return len(r.order)
}

// Keys returns sender keys in parse order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Settings returns a copy of every setting in parse order.
func (r *Registry) Settings() []Setting {
	out := make([]Setting, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, *r.settings[key])
	}
	return out
}

// Get returns the setting for key.
func (r *Registry) Get(key string) (Setting, bool) {
	s, ok := r.settings[key]
	if !ok {
		return Setting{}, false
	}
	return *s, true
}

// Rename sets the display name for key. An empty name restores the key.
func (r *Registry) Rename(key, name string) error {
	s, ok := r.settings[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParticipant, key)
	}
	if name == "" {
		name = key
	}
	s.DisplayName = name
	return nil
}

// SetColor sets an explicit color for key. An empty color clears it.
func (r *Registry) SetColor(key, color string) error {
	s, ok := r.settings[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParticipant, key)
	}
	if color != "" && !ValidColor(color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	s.Color = color
	return nil
}

// SetPrimary makes the first participant whose display name is name the
// primary one.
func (r *Registry) SetPrimary(name string) error {
	for _, key := range r.order {
		if r.settings[key].DisplayName == name {
			r.primaryKey = key
			return nil
		}
	}
	return fmt.Errorf("%w: no participant named %q", ErrUnknownParticipant, name)
}

// PrimaryKey returns the sender key of the primary participant, or "" for an
// empty registry.
func (r *Registry) PrimaryKey() string {
	if r.primaryKey != "" {
		return r.primaryKey
	}
	if len(r.order) > 0 {
		return r.order[0]
	}
	return ""
}

// PrimaryName returns the primary participant's current display name.
func (r *Registry) PrimaryName() string {
	key := r.PrimaryKey()
	if key == "" {
		return ""
	}
	return r.settings[key].DisplayName
}

// Stats counts identity resolution outcomes.
type Stats struct {
	Left    int
	Right   int
	Unknown int // senders missing from the registry
}

// ApplyIdentity sets Sender, IsRight and Color on every message. A message is
// on the left when its display name equals the primary's display name.
// Senders missing from the registry keep their name and get the fallback
// color on the right.
func (r *Registry) ApplyIdentity(messages []parse.Message) Stats {
	var stats Stats
	primary := r.PrimaryName()

	for i := range messages {
		msg := &messages[i]
		s, ok := r.settings[msg.Sender]
		if !ok {
			msg.IsRight = true
			msg.Color = r.colors.Fallback
			stats.Unknown++
			stats.Right++
			continue
		}

		msg.Sender = s.DisplayName
		msg.IsRight = s.DisplayName != primary
		switch {
		case s.Color != "":
			msg.Color = s.Color
		case msg.IsRight:
			msg.Color = r.colors.Secondary
		default:
			msg.Color = r.colors.Primary
		}
		if msg.IsRight {
			stats.Right++
		} else {
			stats.Left++
		}
	}
	return stats
}
