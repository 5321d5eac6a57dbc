// Package layout describes where an export's files live on disk.
package layout

import (
	"errors"
	"path/filepath"
	"strings"
)

// AttachmentsDir is the attachments subdirectory name inside an export.
const AttachmentsDir = "attachments"

// ErrEmptyName is returned for a blank export name.
var ErrEmptyName = errors.New("export name is empty")

// Manifest is the fixed layout of one export. The name is used verbatim as
// folder name, document base name and document title; path separators or
// other unsafe characters are not filtered.
type Manifest struct {
	Name           string
	Root           string
	OutputDir      string
	AttachmentsDir string
	DocumentPath   string
}

// New builds the manifest for name under root.
func New(root, name string) (Manifest, error) {
	if strings.TrimSpace(name) == "" {
		return Manifest{}, ErrEmptyName
	}
	out := filepath.Join(root, name)
	return Manifest{
		Name:           name,
		Root:           root,
		OutputDir:      out,
		AttachmentsDir: filepath.Join(out, AttachmentsDir),
		DocumentPath:   filepath.Join(out, name+".html"),
	}, nil
}

// LockPath is the lock file guarding this export, kept beside the output
// directory so it never lands inside the export itself.
func (m Manifest) LockPath() string {
	return filepath.Join(m.Root, "."+m.Name+".lock")
}

// TranscriptCopyPath is where the original transcript is copied.
func (m Manifest) TranscriptCopyPath(transcript string) string {
	return filepath.Join(m.AttachmentsDir, filepath.Base(transcript))
}
