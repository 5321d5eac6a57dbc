package links

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

func TestRewrite_SingleURL(t *testing.T) {
	r := NewRewriter("")
	out, n := r.Rewrite("see https://example.com/a?b=1 now")

	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(out, "see "))
	assert.True(t, strings.HasSuffix(out, " now"))
	assert.Contains(t, out, `<div class="link-preview">`)
	assert.Contains(t, out, `href="https://example.com/a?b=1"`)
	assert.Contains(t, out, `>example.com</a>`)
	assert.Contains(t, out,
		`src="https://www.google.com/s2/favicons?sz=64&amp;domain_url=https%3A%2F%2Fexample.com%2Fa%3Fb%3D1"`)
}

func TestRewrite_NoBareURLRemains(t *testing.T) {
	r := NewRewriter("")
	out, n := r.Rewrite("http://a.example and https://b.example/x")

	assert.Equal(t, 2, n)
	// Every occurrence of a URL sits inside an attribute value.
	stripped := out
	for _, attr := range []string{`href="`, `title="`} {
		for {
			i := strings.Index(stripped, attr)
			if i < 0 {
				break
			}
			end := strings.Index(stripped[i+len(attr):], `"`)
			stripped = stripped[:i] + stripped[i+len(attr)+end+1:]
		}
	}
	assert.NotContains(t, stripped, "http://a.example")
	assert.NotContains(t, stripped, "https://b.example/x")
	assert.Equal(t, 2, strings.Count(out, `class="link-preview"`))
}

func TestRewrite_NoURL(t *testing.T) {
	out, n := NewRewriter("").Rewrite("plain text, www.example.com")
	assert.Equal(t, 0, n)
	assert.Equal(t, "plain text, www.example.com", out)
}

func TestRewrite_EscapesURLInMarkup(t *testing.T) {
	out, _ := NewRewriter("").Rewrite(`https://x.example/"><script>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&#34;&gt;&lt;script&gt;")
}

func TestRewrite_EscapesSurroundingText(t *testing.T) {
	out, n := NewRewriter("").Rewrite(`<b>bold</b> & https://a.example`)
	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(out, "&lt;b&gt;bold&lt;/b&gt; &amp; <div"))

	out, n = NewRewriter("").Rewrite("1 < 2")
	assert.Equal(t, 0, n)
	assert.Equal(t, "1 &lt; 2", out)
}

func TestRewrite_CustomFavicon(t *testing.T) {
	out, _ := NewRewriter("https://icons.example/?u=%s").Rewrite("https://go.dev")
	assert.Contains(t, out, `src="https://icons.example/?u=https%3A%2F%2Fgo.dev"`)
}

func TestNewRewriter_InvalidFormatFallsBack(t *testing.T) {
	assert.Equal(t, DefaultFaviconURL, NewRewriter("https://icons.example/").faviconURL)
}

func TestFind(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "http://b.example/p"},
		Find("x https://a.example y http://b.example/p"))
	assert.Empty(t, Find("nothing"))
}

func TestRewriteMessages(t *testing.T) {
	msgs := []parse.Message{
		{Sender: "a", Content: "https://a.example https://b.example"},
		{Sender: "b", Content: "no links"},
	}
	n := NewRewriter("").RewriteMessages(msgs)

	assert.Equal(t, 2, n)
	assert.Equal(t, 2, strings.Count(msgs[0].Content, "link-preview"))
	assert.Equal(t, "no links", msgs[1].Content)
	assert.Equal(t, "a", msgs[0].Sender)
}
