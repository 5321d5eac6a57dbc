package parse

import "github.com/Zuo-Peng/whatshtml/internal/media"

// Message is one transcript entry. Timestamp is kept verbatim from the
// transcript; Sender starts as the transcript's sender key and is replaced by
// the display name during identity resolution.
type Message struct {
	Timestamp  string
	Sender     string
	Content    string
	Attachment *Attachment // set at most once, by the attachment resolver
	IsRight    bool        // set by identity resolution
	Color      string      // set by identity resolution
	Line       int         // line number of the header in the transcript
}

// Attachment describes a file referenced by a message.
type Attachment struct {
	Filename     string
	Kind         media.Kind
	RelativePath string // relative to the output document, forward slashes
}

// ParseResult holds the messages of a transcript in transcript order and the
// distinct senders in order of first appearance.
type ParseResult struct {
	Messages  []Message
	Senders   []string
	Lines     int // total lines read
	Discarded int // non-header lines with no open message
}
