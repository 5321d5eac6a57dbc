// Package links turns bare URLs in message text into link-preview blocks.
package links

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

// DefaultFaviconURL is the favicon service used when none is configured.
// The single %s receives the full link URL.
const DefaultFaviconURL = "https://www.google.com/s2/favicons?sz=64&domain_url=%s"

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

// Rewriter replaces URLs with preview markup.
type Rewriter struct {
	faviconURL string
}

// NewRewriter returns a Rewriter using faviconURL as a printf format with one
// %s verb. An empty format selects DefaultFaviconURL.
func NewRewriter(faviconURL string) *Rewriter {
	if faviconURL == "" || !strings.Contains(faviconURL, "%s") {
		faviconURL = DefaultFaviconURL
	}
	return &Rewriter{faviconURL: faviconURL}
}

// Rewrite returns content as an HTML fragment with every URL replaced by a
// preview block, and the number of URLs replaced. Text outside URLs is
// HTML-escaped, so the result is safe to embed verbatim.
func (r *Rewriter) Rewrite(content string) (string, int) {
	locs := urlRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return html.EscapeString(content), 0
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(html.EscapeString(content[last:loc[0]]))
		b.WriteString(r.preview(content[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(html.EscapeString(content[last:]))
	return b.String(), len(locs)
}

// RewriteMessages rewrites the content of every message in place and returns
// the total number of URLs replaced. After it runs, Content holds HTML: text
// outside URLs is escaped, so Content changes even for messages with no URL.
func (r *Rewriter) RewriteMessages(messages []parse.Message) int {
	total := 0
	for i := range messages {
		var n int
		messages[i].Content, n = r.Rewrite(messages[i].Content)
		total += n
	}
	return total
}

// Find returns the URLs in content in order of appearance.
func Find(content string) []string {
	return urlRe.FindAllString(content, -1)
}

func (r *Rewriter) preview(raw string) string {
	host := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	}
	favicon := fmt.Sprintf(r.faviconURL, url.QueryEscape(raw))
	esc := html.EscapeString(raw)

	var b strings.Builder
	b.WriteString(`<div class="link-preview">`)
	fmt.Fprintf(&b, `<img src="%s" alt="Preview">`, html.EscapeString(favicon))
	b.WriteString(`<div class="link-info">`)
	fmt.Fprintf(&b, `<a href="%s" target="_blank" title="%s">%s</a>`, esc, esc, html.EscapeString(host))
	b.WriteString(`</div></div>`)
	return b.String()
}
