package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/whatshtml/internal/export"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
)

// Wizard asks for the export name and participant settings in the terminal.
// It satisfies export.Collaborator.
type Wizard struct {
	Input  io.Reader
	Output io.Writer
}

var _ export.Collaborator = (*Wizard)(nil)

func (w *Wizard) run(m tea.Model) (tea.Model, error) {
	var opts []tea.ProgramOption
	if w.Input != nil {
		opts = append(opts, tea.WithInput(w.Input))
	}
	if w.Output != nil {
		opts = append(opts, tea.WithOutput(w.Output))
	}
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	return final, nil
}

// ExportName prompts for the export name, prefilled with suggested.
func (w *Wizard) ExportName(suggested string) (string, error) {
	final, err := w.run(newNameModel(suggested))
	if err != nil {
		return "", err
	}
	m := final.(nameModel)
	if m.cancelled {
		return "", export.ErrCancelled
	}
	return m.value(), nil
}

// ConfigureParticipants lets the user rename participants, pick colors and
// choose the primary participant.
func (w *Wizard) ConfigureParticipants(reg *participant.Registry) error {
	if reg.Len() == 0 {
		return nil
	}
	final, err := w.run(newParticipantsModel(reg))
	if err != nil {
		return err
	}
	if final.(participantsModel).cancelled {
		return export.ErrCancelled
	}
	return nil
}

// name step

type nameModel struct {
	input     textinput.Model
	err       string
	done      bool
	cancelled bool
}

func newNameModel(suggested string) nameModel {
	ti := textinput.New()
	ti.Placeholder = "export name"
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 128
	ti.SetValue(suggested)
	ti.CursorEnd()
	ti.Focus()
	return nameModel{input: ti}
}

// value is the name exactly as typed; only the blank check trims it.
func (m nameModel) value() string {
	return m.input.Value()
}

func (m nameModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m nameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(km, keys.Enter):
			if strings.TrimSpace(m.value()) == "" {
				m.err = "name must not be empty"
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = ""
	return m, cmd
}

func (m nameModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render("Export name") + "\n\n")
	b.WriteString(m.input.View() + "\n")
	if m.err != "" {
		b.WriteString(styleError.Render(m.err) + "\n")
	}
	b.WriteString("\n" + styleStatusBar.Render("Enter confirm | Esc cancel"))
	return b.String()
}

// participants step

type editField int

const (
	editNone editField = iota
	editName
	editColor
)

type participantsModel struct {
	reg       *participant.Registry
	keys      []string
	cursor    int
	editing   editField
	input     textinput.Model
	err       string
	done      bool
	cancelled bool
}

func newParticipantsModel(reg *participant.Registry) participantsModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 128
	return participantsModel{reg: reg, keys: reg.Keys(), input: ti}
}

func (m participantsModel) Init() tea.Cmd {
	return nil
}

func (m participantsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.editing != editNone {
		return m.updateEditing(km)
	}

	current := m.keys[m.cursor]
	s, _ := m.reg.Get(current)
	m.err = ""

	switch {
	case key.Matches(km, keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(km, keys.Enter):
		m.done = true
		return m, tea.Quit
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Primary):
		if err := m.reg.SetPrimary(s.DisplayName); err != nil {
			m.err = err.Error()
		}
	case key.Matches(km, keys.Rename):
		m.editing = editName
		m.input.Placeholder = current
		m.input.SetValue(s.DisplayName)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(km, keys.Color):
		m.editing = editColor
		m.input.Placeholder = "#rrggbb (empty for default)"
		m.input.SetValue(s.Color)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

func (m participantsModel) updateEditing(km tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case km.Type == tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	case km.Type == tea.KeyEsc:
		m.editing = editNone
		m.input.Blur()
		return m, nil
	case key.Matches(km, keys.Enter):
		current := m.keys[m.cursor]
		value := strings.TrimSpace(m.input.Value())
		var err error
		if m.editing == editName {
			err = m.reg.Rename(current, value)
		} else {
			err = m.reg.SetColor(current, value)
		}
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		m.editing = editNone
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(km)
	return m, cmd
}

func (m participantsModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render("Participants") + "\n\n")

	colors := m.reg.DefaultColors()
	primary := m.reg.PrimaryKey()
	for i, k := range m.keys {
		s, _ := m.reg.Get(k)
		color := s.Color
		if color == "" {
			color = colors.Secondary
			if k == primary {
				color = colors.Primary
			}
		}

		cursor := "  "
		if i == m.cursor {
			cursor = styleListSelected.Render("> ")
		}
		role := ""
		if k == primary {
			role = styleDim.Render(" (primary, left)")
		}
		name := s.DisplayName
		if name != k {
			name += styleDim.Render(" [" + k + "]")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cursor, swatch(color), " ", name, role) + "\n")
	}

	if m.editing != editNone {
		label := "Display name"
		if m.editing == editColor {
			label = "Color"
		}
		b.WriteString("\n" + label + "\n" + m.input.View() + "\n")
	}
	if m.err != "" {
		b.WriteString(styleError.Render(m.err) + "\n")
	}

	help := "up/dn select | r rename | c color | p primary | Enter export | Esc cancel"
	if m.editing != editNone {
		help = "Enter apply | Esc back"
	}
	b.WriteString("\n" + styleStatusBar.Render(help))
	return b.String()
}
