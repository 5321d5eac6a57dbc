// Package attach links transcript messages to attachment files.
//
// Two sources are handled: external files supplied next to the transcript,
// which are copied into the export's attachments directory and categorized,
// and inline references, where a marker phrase inside a message announces an
// attachment whose filename follows in the text.
package attach

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Zuo-Peng/whatshtml/internal/fileutil"
	"github.com/Zuo-Peng/whatshtml/internal/layout"
	"github.com/Zuo-Peng/whatshtml/internal/logging"
	"github.com/Zuo-Peng/whatshtml/internal/media"
	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

// DirName is the attachments directory name inside an export, and the prefix
// of every attachment's document-relative path.
const DirName = layout.AttachmentsDir

// DefaultMarkers are the "file attached" phrases recognized out of the box.
var DefaultMarkers = []string{
	"(soubor byl přiložen)",
	"(file attached)",
	"(Datei angehängt)",
}

// filenameRe matches a filename ending in any recognized extension. The
// alternation is built longest-first so "x.docx" is not cut to "x.doc".
// Nothing is required after the extension: "photo.jpg_1" yields "photo.jpg".
var filenameRe = regexp.MustCompile(
	`(?i)([\p{L}\p{N}_\-.]+\.(?:` + strings.Join(media.Extensions(), "|") + `))`,
)

// Stats counts the outcome of inline resolution.
type Stats struct {
	Resolved   int // marker found, filename found
	Unresolved int // marker found, no filename
	Missing    int // resolved filename not present in the attachments dir
}

// Resolver resolves attachments for one conversion run.
type Resolver struct {
	markers []string
	logger  logging.Logger
}

// NewResolver creates a resolver for the given marker phrases, falling back
// to DefaultMarkers when none are given.
func NewResolver(logger logging.Logger, markers []string) *Resolver {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		markers: markers,
		logger:  logger.With(logging.F("component", "attachment_resolver")),
	}
}

// Resolve copies the external files into attachmentsDir and then resolves
// inline references in messages. Copy failures are returned; resolution
// anomalies are only logged and counted.
func (r *Resolver) Resolve(messages []parse.Message, externalFiles []string, attachmentsDir string) (media.Categorized, Stats, error) {
	categorized, err := r.CopyExternal(externalFiles, attachmentsDir)
	if err != nil {
		return categorized, Stats{}, err
	}
	stats := r.ResolveInline(messages, attachmentsDir)
	return categorized, stats, nil
}

// CopyExternal copies each file into attachmentsDir under its base name and
// categorizes the copies. A later file with the same base name overwrites an
// earlier one.
func (r *Resolver) CopyExternal(files []string, attachmentsDir string) (media.Categorized, error) {
	var categorized media.Categorized
	seen := make(map[string]string)

	for _, src := range files {
		base := filepath.Base(src)
		dst := filepath.Join(attachmentsDir, base)

		if prev, ok := seen[base]; ok {
			r.logger.Warn("Duplicate attachment name, overwriting",
				logging.F("file", base),
				logging.F("previous", prev),
				logging.F("source", src))
		}
		seen[base] = src

		if err := fileutil.CopyFile(src, dst); err != nil {
			return categorized, fmt.Errorf("copy attachment %s: %w", src, err)
		}
		kind := categorized.Add(dst)
		r.logger.Debug("Copied attachment",
			logging.F("file", base),
			logging.F("kind", string(kind)))
	}
	return categorized, nil
}

// ResolveInline strips marker phrases from message content and attaches the
// first filename found in what remains. Messages without a marker are left
// untouched, so running it twice changes nothing. When attachmentsDir is not
// empty, resolved filenames absent from it are logged but kept.
func (r *Resolver) ResolveInline(messages []parse.Message, attachmentsDir string) Stats {
	var stats Stats

	for i := range messages {
		msg := &messages[i]

		content, found := r.stripMarkers(msg.Content)
		if !found {
			continue
		}
		content = strings.TrimSpace(content)

		m := filenameRe.FindStringSubmatch(content)
		if m == nil {
			msg.Content = content
			msg.Attachment = nil
			stats.Unresolved++
			r.logger.Warn("Attachment marker without filename",
				logging.F("line", msg.Line),
				logging.F("sender", msg.Sender))
			continue
		}

		filename := m[1]
		msg.Attachment = &parse.Attachment{
			Filename:     filename,
			Kind:         inlineKind(filename),
			RelativePath: path.Join(DirName, filename),
		}
		msg.Content = strings.TrimSpace(strings.ReplaceAll(content, filename, ""))
		stats.Resolved++

		if attachmentsDir != "" {
			if _, err := os.Stat(filepath.Join(attachmentsDir, filename)); err != nil {
				stats.Missing++
				r.logger.Warn("Referenced attachment not found among copied files",
					logging.F("file", filename),
					logging.F("line", msg.Line))
			}
		}
	}

	r.logger.Debug("Resolved inline attachments",
		logging.F("resolved", stats.Resolved),
		logging.F("unresolved", stats.Unresolved),
		logging.F("missing", stats.Missing))
	return stats
}

// stripMarkers removes every occurrence of every marker phrase.
func (r *Resolver) stripMarkers(content string) (string, bool) {
	found := false
	for _, marker := range r.markers {
		if marker != "" && strings.Contains(content, marker) {
			content = strings.ReplaceAll(content, marker, "")
			found = true
		}
	}
	return content, found
}

// inlineKind maps a filename to image, audio, video or document; anything
// else found inline (contact cards included) is offered as a document.
func inlineKind(filename string) media.Kind {
	switch kind := media.Classify(filename); kind {
	case media.Image, media.Audio, media.Video:
		return kind
	default:
		return media.Document
	}
}
