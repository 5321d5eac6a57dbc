package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorLeft    = "\033[1;34m" // bold blue
	colorRight   = "\033[1;32m" // bold green
	colorAttach  = "\033[2;35m" // dim magenta
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // keyword highlights
)

type Options struct {
	HitMsgID int
	Context  int    // messages before/after hit to show
	Width    int    // wrap width (0 = no wrap)
	Query    string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var filtered []string
	for _, t := range strings.Fields(query) {
		if !fts5Operators[t] {
			filtered = append(filtered, strings.Trim(t, `"*`))
		}
	}
	for _, term := range filtered {
		if term == "" {
			continue
		}
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			if pos+len(term) > len(text) {
				break
			}
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// entry is the part of a message the terminal view shows.
type entry struct {
	ts      string
	sender  string
	isRight bool
	kind    string
	text    string
}

type conversation struct {
	title   string
	entries []entry
	hitIdx  int
	before  int
	after   int
	width   int
	query   string
}

func (c conversation) render() (string, int) {
	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + strings.Repeat("-", 50) + colorReset

	writeLine := func(s string) {
		for _, wl := range wrapLine(s, c.width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s ---%s", colorDim, c.title, colorReset))

	if c.before > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, c.before, colorReset))
	}

	for i, e := range c.entries {
		isHit := i == c.hitIdx
		if i > 0 {
			writeLine(separator)
		}
		if isHit {
			hitLine = lineCount
		}

		sideColor := colorLeft
		marker := "<"
		if e.isRight {
			sideColor = colorRight
			marker = ">"
		}
		sender := e.sender
		if sender == "" {
			sender = "?"
		}

		if isHit {
			writeLine(fmt.Sprintf("%s>> %s %s %s <<%s", colorHit, marker, sender, e.ts, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s %s%s %s%s%s", sideColor, marker, sender, colorReset, colorDim, e.ts, colorReset))
		}

		text := highlightKeywords(e.text, c.query)
		if e.kind != "" && e.kind != "text" {
			text = colorAttach + "[" + e.kind + "]" + colorReset + " " + text
		}
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		writeLine("")
	}

	if c.after > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, c.after, colorReset))
	}

	return b.String(), hitLine
}

// RenderMessages renders parsed or resolved messages for the terminal. Message
// content is shown as text; it should not yet contain link markup.
func RenderMessages(title string, messages []parse.Message, opts Options) string {
	if len(messages) == 0 {
		return "(empty transcript)"
	}
	c := conversation{title: title, hitIdx: -1, width: opts.Width, query: opts.Query}
	for _, m := range messages {
		e := entry{ts: m.Timestamp, sender: m.Sender, isRight: m.IsRight, kind: "text", text: m.Content}
		if m.Attachment != nil {
			e.kind = string(m.Attachment.Kind)
			e.text = strings.TrimSpace(m.Attachment.Filename + " " + m.Content)
		}
		c.entries = append(c.entries, e)
	}
	out, _ := c.render()
	return out
}

// RenderExport renders a recorded export and returns the content, the
// 0-based line number of the hit message header (-1 if no hit), and any error.
func RenderExport(db *index.DB, exportID string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1000000
	}

	export, err := db.GetExport(exportID)
	if err != nil {
		return "", -1, fmt.Errorf("get export: %w", err)
	}
	if export == nil {
		return "", -1, fmt.Errorf("export not found: %s", exportID)
	}

	msgs, hitIdx, startPos, totalCount, err := db.GetMessagesWindow(export.ExportID, opts.HitMsgID, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}
	if totalCount == 0 {
		return "(empty export)", -1, nil
	}

	c := conversation{
		title:  fmt.Sprintf("%s [%s] %s", export.Name, shortID(export.ExportID), export.CreatedAt),
		hitIdx: hitIdx,
		before: startPos,
		after:  totalCount - startPos - len(msgs),
		width:  opts.Width,
		query:  opts.Query,
	}
	for _, m := range msgs {
		c.entries = append(c.entries, entry{ts: m.Ts, sender: m.Sender, isRight: m.IsRight, kind: m.Kind, text: m.Text})
	}
	out, hitLine := c.render()
	return out, hitLine, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
