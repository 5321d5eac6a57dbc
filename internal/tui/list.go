package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/whatshtml/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// renderList renders the left panel: results list with scrolling.
func (b browser) renderList(width, height int) string {
	if len(b.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No results")
	}

	var lines []string
	for i, r := range b.results {
		if i < b.offset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatResultLine(r, width, i == b.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatResultLine formats a single result as two lines:
//
//	line 1: [>] MM-DD  export name  sender
//	line 2:    snippet (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	date := r.CreatedAt
	if len(date) >= 10 {
		date = date[5:10]
	}

	name := strings.ReplaceAll(r.Name, "\n", " ")
	sender := strings.ReplaceAll(r.Sender, "\n", " ")
	nameMax := max(width-2-6-runewidth.StringWidth(sender)-2, 4)
	if runewidth.StringWidth(name) > nameMax {
		name = runewidth.Truncate(name, nameMax, "…")
	}

	line1 := fmt.Sprintf("%s %s %s", date, styleExportName.Render(name), styleSender.Render(sender))
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	snippet = strings.ReplaceAll(snippet, "<<<", "")
	snippetMax := max(width-4, 0)
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + styleDim.Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (b *browser) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+visibleItems {
		b.offset = b.cursor - visibleItems + 1
	}
}
