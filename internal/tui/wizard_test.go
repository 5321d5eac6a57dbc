package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/whatshtml/internal/participant"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func typeText(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	for _, r := range text {
		m, _ = m.Update(runes(string(r)))
	}
	return m
}

func TestNameModel_AcceptsSuggestion(t *testing.T) {
	var m tea.Model = newNameModel("chat_export")
	m, cmd := m.Update(enter)

	nm := m.(nameModel)
	assert.True(t, nm.done)
	assert.Equal(t, "chat_export", nm.value())
	assert.NotNil(t, cmd)
}

func TestNameModel_Typing(t *testing.T) {
	var m tea.Model = newNameModel("")
	m = typeText(t, m, "Family")
	m, _ = m.Update(enter)
	assert.Equal(t, "Family", m.(nameModel).value())
}

func TestNameModel_KeepsNameVerbatim(t *testing.T) {
	var m tea.Model = newNameModel(" Family Chat ")
	m, _ = m.Update(enter)

	nm := m.(nameModel)
	assert.True(t, nm.done)
	assert.Equal(t, " Family Chat ", nm.value())
}

func TestNameModel_RejectsEmpty(t *testing.T) {
	var m tea.Model = newNameModel("   ")
	m, _ = m.Update(enter)

	nm := m.(nameModel)
	assert.False(t, nm.done)
	assert.NotEmpty(t, nm.err)
	assert.Contains(t, nm.View(), "must not be empty")
}

func TestNameModel_Cancel(t *testing.T) {
	var m tea.Model = newNameModel("x")
	m, _ = m.Update(esc)
	assert.True(t, m.(nameModel).cancelled)
	assert.Equal(t, "", m.View())
}

func TestParticipantsModel_RenameColorPrimary(t *testing.T) {
	reg := participant.Build([]string{"Alice", "Bob"})
	var m tea.Model = newParticipantsModel(reg)

	m, _ = m.Update(down)
	m, _ = m.Update(runes("r"))
	require.Equal(t, editName, m.(participantsModel).editing)

	pm := m.(participantsModel)
	pm.input.SetValue("Robert")
	m, _ = pm.Update(enter)
	assert.Equal(t, editNone, m.(participantsModel).editing)

	m, _ = m.Update(runes("c"))
	pm = m.(participantsModel)
	pm.input.SetValue("#ffd700")
	m, _ = pm.Update(enter)

	m, _ = m.Update(runes("p"))
	m, _ = m.Update(enter)
	assert.True(t, m.(participantsModel).done)

	s, ok := reg.Get("Bob")
	require.True(t, ok)
	assert.Equal(t, participant.Setting{Key: "Bob", DisplayName: "Robert", Color: "#ffd700"}, s)
	assert.Equal(t, "Robert", reg.PrimaryName())
}

func TestParticipantsModel_InvalidColorStaysEditing(t *testing.T) {
	reg := participant.Build([]string{"Alice"})
	var m tea.Model = newParticipantsModel(reg)

	m, _ = m.Update(runes("c"))
	pm := m.(participantsModel)
	pm.input.SetValue("blue")
	m, _ = pm.Update(enter)

	pm = m.(participantsModel)
	assert.Equal(t, editColor, pm.editing)
	assert.NotEmpty(t, pm.err)

	m, _ = pm.Update(esc)
	assert.Equal(t, editNone, m.(participantsModel).editing)
	assert.False(t, m.(participantsModel).cancelled)

	s, _ := reg.Get("Alice")
	assert.Equal(t, "", s.Color)
}

func TestParticipantsModel_LettersGoToInputWhileEditing(t *testing.T) {
	reg := participant.Build([]string{"Alice"})
	var m tea.Model = newParticipantsModel(reg)

	m, _ = m.Update(runes("r"))
	pm := m.(participantsModel)
	pm.input.SetValue("")
	m = typeText(t, pm, "pc")
	m, _ = m.Update(enter)

	s, _ := reg.Get("Alice")
	assert.Equal(t, "pc", s.DisplayName)
	assert.False(t, m.(participantsModel).done)
}

func TestParticipantsModel_Cancel(t *testing.T) {
	var m tea.Model = newParticipantsModel(participant.Build([]string{"Alice"}))
	m, _ = m.Update(esc)
	assert.True(t, m.(participantsModel).cancelled)
}

func TestParticipantsModel_View(t *testing.T) {
	reg := participant.Build([]string{"Alice", "Bob"})
	require.NoError(t, reg.Rename("Bob", "Robert"))
	view := newParticipantsModel(reg).View()

	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "primary")
	assert.Contains(t, view, "Robert")
	assert.Contains(t, view, "[Bob]")
}

func TestWizard_EmptyRegistryNeedsNoPrompt(t *testing.T) {
	w := &Wizard{}
	assert.NoError(t, w.ConfigureParticipants(participant.Build(nil)))
}
