package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/media"
	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	assert.Equal(t, []string{"abcdefg"}, wrapLine("abcdefg", 0))
	assert.Equal(t, []string{""}, wrapLine("", 5))
	// wide runes take two columns
	assert.Equal(t, []string{"你好", "世界"}, wrapLine("你好世界", 4))
	// escape sequences take none
	assert.Equal(t, []string{colorDim + "ab", "cd" + colorReset}, wrapLine(colorDim+"abcd"+colorReset, 2))
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Beach and sun", "beach AND sun")
	assert.Equal(t, colorBoldRed+"Beach"+colorReset+" and "+colorBoldRed+"sun"+colorReset, got)
	assert.Equal(t, "plain", highlightKeywords("plain", ""))
}

func TestIndentLines(t *testing.T) {
	assert.Equal(t, "  a\n  b", indentLines("a\nb", "  "))
}

func TestRenderMessages(t *testing.T) {
	out := RenderMessages("Family", []parse.Message{
		{Timestamp: "01.01.23 9:05", Sender: "Alice", Content: "Hi"},
		{Timestamp: "01.01.23 9:06", Sender: "Bob", IsRight: true,
			Attachment: &parse.Attachment{Filename: "photo.jpg", Kind: media.Image}},
	}, Options{})

	assert.Contains(t, out, "--- Family ---")
	assert.Contains(t, out, "< Alice")
	assert.Contains(t, out, "> Bob")
	assert.Contains(t, out, "[image]")
	assert.Contains(t, out, "photo.jpg")
	assert.Less(t, strings.Index(out, "Alice"), strings.Index(out, "Bob"))

	assert.Equal(t, "(empty transcript)", RenderMessages("x", nil, Options{}))
}

func TestRenderExport(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer db.Close()

	doc := filepath.Join(t.TempDir(), "x.html")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o644))

	var msgs []parse.Message
	for i := 0; i < 30; i++ {
		msgs = append(msgs, parse.Message{Sender: "Alice", Content: "line"})
	}
	msgs[15].Content = "needle here"
	require.NoError(t, index.RecordExport(db, index.Record{
		ExportID: "abcdef0123", Name: "Hay", DocumentPath: doc, CreatedAt: time.Now(), Messages: msgs,
	}))

	out, hitLine, err := RenderExport(db, "abcdef", Options{HitMsgID: 15, Context: 2, Query: "needle"})
	require.NoError(t, err)
	assert.Contains(t, out, "Hay [abcdef01]")
	assert.Contains(t, out, "(13 messages before)")
	assert.Contains(t, out, "(12 messages after)")
	assert.Contains(t, out, colorBoldRed+"needle"+colorReset)

	lines := strings.Split(out, "\n")
	require.True(t, hitLine > 0 && hitLine < len(lines))
	assert.Contains(t, lines[hitLine], ">>")

	_, _, err = RenderExport(db, "missing", Options{})
	assert.Error(t, err)
}
