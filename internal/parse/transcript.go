package parse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Zuo-Peng/whatshtml/internal/logging"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Parser turns raw transcript text into messages.
type Parser struct {
	dialects []Dialect
	logger   logging.Logger
}

// NewParser creates a parser using the given dialects, or DefaultDialects
// when none are given.
func NewParser(logger logging.Logger, dialects ...Dialect) *Parser {
	if len(dialects) == 0 {
		dialects = DefaultDialects
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Parser{
		dialects: dialects,
		logger:   logger.With(logging.F("component", "transcript_parser")),
	}
}

// ParseFile opens and parses a transcript file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return result, nil
}

// Parse reads r line by line. A header line opens a new message (flushing the
// previous one); any other non-blank line is appended to the open message
// with a single space, or discarded when no message is open. Input with no
// header lines yields an empty result, not an error.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	// UTF-8 (with or without BOM) and BOM-marked UTF-16 decode transparently.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	result := &ParseResult{
		Messages: make([]Message, 0),
		Senders:  make([]string, 0),
	}
	seen := make(map[string]bool)

	var current *Message
	flush := func() {
		if current != nil {
			result.Messages = append(result.Messages, *current)
			current = nil
		}
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(stripInvisible(scanner.Text()))

		if ts, sender, content, ok := match(p.dialects, line); ok {
			flush()
			current = &Message{
				Timestamp: ts,
				Sender:    sender,
				Content:   content,
				Line:      lineNum,
			}
			if !seen[sender] {
				seen[sender] = true
				result.Senders = append(result.Senders, sender)
			}
			continue
		}

		if line == "" {
			continue
		}
		if current == nil {
			result.Discarded++
			p.logger.Debug("Discarding line before first message", logging.F("line", lineNum))
			continue
		}
		current.Content += " " + line
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	result.Lines = lineNum
	p.logger.Debug("Parsed transcript",
		logging.F("lines", lineNum),
		logging.F("messages", len(result.Messages)),
		logging.F("senders", len(result.Senders)),
		logging.F("discarded", result.Discarded))

	return result, nil
}

// stripInvisible removes direction marks, zero-width spaces and BOMs that
// chat exports sprinkle through the text. Zero-width joiners are kept since
// they glue emoji sequences together.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200e', '\u200f', '\u200b', '\u200c', '\u202a', '\u202c', '\ufeff':
			return -1
		default:
			return r
		}
	}, s)
}
