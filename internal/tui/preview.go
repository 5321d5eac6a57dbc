package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/render"
	"github.com/Zuo-Peng/whatshtml/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	exportID string
	msgID    int
	content  string
	hitLine  int
	err      error
}

// loadPreviewCmd returns a tea.Cmd that renders the export preview async.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderExport(db, r.ExportID, render.Options{
			HitMsgID: r.MsgID,
			Context:  -1,
			Width:    width,
			Query:    query,
		})
		return previewRenderedMsg{
			exportID: r.ExportID,
			msgID:    r.MsgID,
			content:  content,
			hitLine:  hitLine,
			err:      err,
		}
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
