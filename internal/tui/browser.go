package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/open"
	"github.com/Zuo-Peng/whatshtml/internal/search"
)

const debounceDelay = 200 * time.Millisecond

// Mode selects what the browser shows while the input is empty.
type Mode int

const (
	// ModeSearch shows message hits for the query.
	ModeSearch Mode = iota
	// ModeList shows every recorded export; typing searches message text.
	ModeList
)

type action int

const (
	actionOpen action = iota
	actionCopy
)

// choice is what the user picked when leaving the browser.
type choice struct {
	result search.Result
	action action
}

type resultsMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceMsg struct {
	query string
}

type browser struct {
	db         *index.DB
	opts       search.Options
	mode       Mode
	query      string
	results    []search.Result
	cursor     int
	offset     int
	input      textinput.Model
	preview    viewport.Model
	previewKey string
	geo        geometry
	done       bool
	choice     *choice
}

func newBrowser(db *index.DB, mode Mode, query string, opts search.Options) browser {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = styleInputPrompt
	in.TextStyle = styleInput
	in.CharLimit = 256
	in.Placeholder = "Search messages..."
	if mode == ModeList {
		in.Placeholder = "Filter..."
	}
	in.SetValue(query)
	in.Focus()

	return browser{
		db:      db,
		opts:    opts,
		mode:    mode,
		query:   query,
		input:   in,
		preview: viewport.New(0, 0),
	}
}

// Browse runs the history browser until the user quits or picks an export.
// Enter opens the pick in the browser; C-y copies its document path.
func Browse(db *index.DB, mode Mode, query string, opts search.Options) error {
	final, err := tea.NewProgram(newBrowser(db, mode, query, opts),
		tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	c := final.(browser).choice
	if c == nil {
		return nil
	}
	if c.action == actionCopy {
		return copyDocumentPath(db, c.result.ExportID)
	}
	return open.OpenExport(db, c.result.ExportID, c.result.MsgID, false)
}

// copyDocumentPath puts the export's document path on the clipboard, or
// prints it when no clipboard is available.
func copyDocumentPath(db *index.DB, exportID string) error {
	e, err := db.GetExport(exportID)
	if err != nil {
		return fmt.Errorf("get export: %w", err)
	}
	if e == nil {
		return fmt.Errorf("export not found: %s", exportID)
	}
	if err := clipboard.WriteAll(e.DocumentPath); err != nil {
		fmt.Println(e.DocumentPath)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", e.DocumentPath)
	return nil
}

func (b browser) Init() tea.Cmd {
	if b.mode == ModeSearch && b.query == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, b.fetch(b.query))
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.geo = geometry{width: msg.Width, height: msg.Height}
		b.preview = newViewport(b.geo.previewWidth(), b.geo.panelHeight())
		b.previewKey = ""
		return b, b.loadPreview()
	case tea.KeyMsg:
		return b.onKey(msg)
	case tea.MouseMsg:
		return b.onMouse(msg)
	case debounceMsg:
		if msg.query != b.query {
			return b, nil
		}
		return b, b.fetch(msg.query)
	case resultsMsg:
		return b.onResults(msg)
	case previewRenderedMsg:
		return b.onPreview(msg), nil
	}
	return b, nil
}

func (b browser) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := b.geo.panelHeight()
	switch {
	case key.Matches(msg, keys.Quit):
		b.done = true
		return b, tea.Quit
	case key.Matches(msg, keys.Enter):
		return b.pick(actionOpen)
	case key.Matches(msg, keys.Copy):
		return b.pick(actionCopy)
	case key.Matches(msg, keys.Up):
		cmd := b.moveTo(b.cursor - 1)
		return b, cmd
	case key.Matches(msg, keys.Down):
		cmd := b.moveTo(b.cursor + 1)
		return b, cmd
	case key.Matches(msg, keys.PreviewUp):
		b.preview.LineUp(page / 2)
		return b, nil
	case key.Matches(msg, keys.PreviewDn):
		b.preview.LineDown(page / 2)
		return b, nil
	case key.Matches(msg, keys.PageUp):
		b.preview.LineUp(page)
		return b, nil
	case key.Matches(msg, keys.PageDown):
		b.preview.LineDown(page)
		return b, nil
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	if q := b.input.Value(); q != b.query {
		b.query = q
		return b, tea.Batch(cmd, debounce(q))
	}
	return b, cmd
}

func (b browser) pick(a action) (tea.Model, tea.Cmd) {
	r, ok := b.current()
	if !ok {
		return b, nil
	}
	b.choice = &choice{result: r, action: a}
	b.done = true
	return b, tea.Quit
}

func (b browser) onMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if b.geo.width == 0 || len(b.results) == 0 {
		return b, nil
	}

	region, row := b.geo.hitTest(msg.X, msg.Y)
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	switch {
	case region == regionPreview && wheel:
		var cmd tea.Cmd
		b.preview, cmd = b.preview.Update(msg)
		return b, cmd
	case region != regionList:
		return b, nil
	case msg.Button == tea.MouseButtonWheelUp:
		b.offset = max(b.offset-1, 0)
	case msg.Button == tea.MouseButtonWheelDown:
		last := max(len(b.results)-b.geo.visibleItems(), 0)
		b.offset = min(b.offset+1, last)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		cmd := b.moveTo(b.offset + row/linesPerItem)
		return b, cmd
	}
	return b, nil
}

func (b browser) onResults(msg resultsMsg) (tea.Model, tea.Cmd) {
	if msg.query != b.query {
		return b, nil
	}
	b.cursor, b.offset, b.previewKey = 0, 0, ""
	b.results = msg.results
	if msg.err != nil {
		b.results = nil
		b.preview.SetContent("Error: " + msg.err.Error())
		return b, nil
	}
	if len(b.results) == 0 {
		b.preview.SetContent("")
		return b, nil
	}
	return b, b.loadPreview()
}

func (b browser) onPreview(msg previewRenderedMsg) browser {
	k := previewCacheKey(msg.exportID, msg.msgID)
	if k == b.previewKey {
		return b
	}
	if r, ok := b.current(); ok && previewCacheKey(r.ExportID, r.MsgID) != k {
		return b
	}

	b.previewKey = k
	if msg.err != nil {
		b.preview.SetContent("Preview error: " + msg.err.Error())
		return b
	}
	b.preview.SetContent(msg.content)
	if msg.hitLine > 0 {
		b.preview.SetYOffset(msg.hitLine)
	} else {
		b.preview.GotoTop()
	}
	return b
}

// moveTo selects result i, keeping it on screen, and loads its preview.
func (b *browser) moveTo(i int) tea.Cmd {
	if i < 0 || i >= len(b.results) || i == b.cursor {
		return nil
	}
	b.cursor = i
	b.adjustListScroll(b.geo.panelHeight())
	return b.loadPreview()
}

func (b browser) current() (search.Result, bool) {
	if b.cursor < 0 || b.cursor >= len(b.results) {
		return search.Result{}, false
	}
	return b.results[b.cursor], true
}

func (b browser) View() string {
	if b.done || b.geo.width == 0 {
		return ""
	}

	listW, previewW, panelH := b.geo.listWidth(), b.geo.previewWidth(), b.geo.panelHeight()

	list := stylePanelBorder.Width(listW).Height(panelH).Render(b.renderList(listW, panelH))
	b.preview.Width = previewW
	b.preview.Height = panelH
	preview := styleActiveBorder.Width(previewW).Height(panelH).Render(b.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		b.input.View(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		b.statusBar(),
	)
}

func (b browser) statusBar() string {
	noun := "matches"
	if b.mode == ModeList && b.query == "" {
		noun = "exports"
	}
	parts := []string{fmt.Sprintf("%d %s", len(b.results), noun)}
	for _, k := range []key.Binding{keys.Down, keys.PreviewDn, keys.Enter, keys.Copy, keys.Quit} {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// fetch loads results for query: the export list when browsing with an
// empty filter, message hits otherwise.
func (b browser) fetch(query string) tea.Cmd {
	db, opts, mode := b.db, b.opts, b.mode
	opts.Query = query
	return func() tea.Msg {
		var (
			results []search.Result
			err     error
		)
		switch {
		case query == "" && mode == ModeList:
			results, err = search.ListAll(db, opts)
		case query != "":
			results, err = search.Search(db, opts)
		}
		return resultsMsg{query: query, results: results, err: err}
	}
}

func debounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{query: query}
	})
}

func (b browser) loadPreview() tea.Cmd {
	r, ok := b.current()
	if !ok || previewCacheKey(r.ExportID, r.MsgID) == b.previewKey {
		return nil
	}
	return loadPreviewCmd(b.db, r, b.query, b.geo.previewWidth())
}

func previewCacheKey(exportID string, msgID int) string {
	return fmt.Sprintf("%s:%d", exportID, msgID)
}
