package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"path"
	"strings"

	"github.com/Zuo-Peng/whatshtml/internal/layout"
	"github.com/Zuo-Peng/whatshtml/internal/media"
	"github.com/Zuo-Peng/whatshtml/internal/parse"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
)

//go:embed templates/document.html.tmpl
var templateFS embed.FS

var documentTmpl = template.Must(template.ParseFS(templateFS, "templates/document.html.tmpl"))

// DefaultLang is the document language when none is configured.
const DefaultLang = "cs"

// HTMLRenderer turns resolved messages into the export document.
type HTMLRenderer struct {
	Lang string
}

// NewHTMLRenderer returns a renderer producing documents in lang.
func NewHTMLRenderer(lang string) *HTMLRenderer {
	if lang == "" {
		lang = DefaultLang
	}
	return &HTMLRenderer{Lang: lang}
}

type documentView struct {
	Lang     string
	Title    string
	Messages []messageView
}

type messageView struct {
	Timestamp  string
	Sender     string
	Content    template.HTML
	IsRight    bool
	Color      string
	Attachment *attachmentView
}

type attachmentView struct {
	Kind     string
	Filename string
	Path     string
	MIME     string
}

// Render returns the document for messages. Message content is embedded as
// HTML, as produced by the link rewriter. Missing fields drop their section;
// the only failure is a write error, which a bytes.Buffer never returns.
func (r *HTMLRenderer) Render(messages []parse.Message, m layout.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, messages, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo writes the document for messages to w.
func (r *HTMLRenderer) RenderTo(w io.Writer, messages []parse.Message, m layout.Manifest) error {
	view := documentView{
		Lang:     r.Lang,
		Title:    m.Name,
		Messages: make([]messageView, 0, len(messages)),
	}
	for _, msg := range messages {
		view.Messages = append(view.Messages, newMessageView(msg))
	}
	if err := documentTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

func newMessageView(msg parse.Message) messageView {
	v := messageView{
		Timestamp: msg.Timestamp,
		Sender:    msg.Sender,
		Content:   template.HTML(msg.Content),
		IsRight:   msg.IsRight,
	}
	if participant.ValidColor(msg.Color) {
		v.Color = msg.Color
	}
	if a := msg.Attachment; a != nil && a.Filename != "" {
		rel := a.RelativePath
		if rel == "" {
			rel = path.Join(layout.AttachmentsDir, a.Filename)
		}
		v.Attachment = &attachmentView{
			Kind:     string(a.Kind),
			Filename: a.Filename,
			Path:     rel,
			MIME:     mimeType(a.Kind, a.Filename),
		}
	}
	return v
}

// mimeType returns the <source> type for playable attachments.
func mimeType(kind media.Kind, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	switch kind {
	case media.Audio:
		if ext == "opus" {
			return "audio/ogg; codecs=opus"
		}
		return "audio/" + ext
	case media.Video:
		return "video/mp4"
	}
	return ""
}
