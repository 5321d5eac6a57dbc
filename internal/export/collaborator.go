package export

import (
	"github.com/Zuo-Peng/whatshtml/internal/logging"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
)

// Collaborator gathers the user's choices before anything is written.
// Either method may return ErrCancelled.
type Collaborator interface {
	// ExportName returns the name for the export, given a suggestion.
	ExportName(suggested string) (string, error)

	// ConfigureParticipants edits display names, colors and the primary
	// participant in place.
	ConfigureParticipants(reg *participant.Registry) error
}

// StaticCollaborator answers from values fixed up front, for non-interactive
// runs.
type StaticCollaborator struct {
	Name      string
	Primary   string
	Overrides *participant.Overrides
	Logger    logging.Logger
}

// ExportName returns Name, or the suggestion when Name is empty.
func (c StaticCollaborator) ExportName(suggested string) (string, error) {
	if c.Name != "" {
		return c.Name, nil
	}
	return suggested, nil
}

// ConfigureParticipants applies Overrides and then Primary.
func (c StaticCollaborator) ConfigureParticipants(reg *participant.Registry) error {
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if c.Overrides != nil {
		unknown, err := c.Overrides.Apply(reg)
		if err != nil {
			return err
		}
		for _, key := range unknown {
			logger.Warn("Participant override matches no sender", logging.F("key", key))
		}
	}
	if c.Primary != "" {
		if err := reg.SetPrimary(c.Primary); err != nil {
			return err
		}
	}
	return nil
}
