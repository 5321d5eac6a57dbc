// Package media classifies attachment files by extension.
package media

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the media bucket a file falls into.
type Kind string

const (
	Image    Kind = "image"
	Audio    Kind = "audio"
	Video    Kind = "video"
	Document Kind = "document"
	Contact  Kind = "contact"
	Unknown  Kind = "unknown"
)

// extensions lists the recognized lower-case extensions per kind.
var extensions = map[Kind][]string{
	Image:    {"jpg", "jpeg", "png", "webp"},
	Audio:    {"ogg", "amr", "3gp", "aac", "mpeg", "opus"},
	Video:    {"mp4"},
	Document: {"pdf", "doc", "docx", "pptx", "xlsx"},
	Contact:  {"vcf"},
}

var byExt = func() map[string]Kind {
	m := make(map[string]Kind)
	for kind, exts := range extensions {
		for _, ext := range exts {
			m[ext] = kind
		}
	}
	return m
}()

// Classify returns the media kind of path based on its extension,
// case-insensitively. Paths without a recognized extension are Unknown.
func Classify(path string) Kind {
	return ClassifyExt(filepath.Ext(path))
}

// ClassifyExt classifies a bare extension, with or without the leading dot.
func ClassifyExt(ext string) Kind {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if kind, ok := byExt[ext]; ok {
		return kind
	}
	return Unknown
}

// Extensions returns every recognized extension, longest first, so a regex
// alternation built from it prefers "docx" over "doc".
func Extensions() []string {
	all := make([]string, 0, len(byExt))
	for ext := range byExt {
		all = append(all, ext)
	}
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) > len(all[j])
		}
		return all[i] < all[j]
	})
	return all
}

// Categorized groups file paths into the five known buckets. Unknown files
// are counted separately and otherwise ignored.
type Categorized struct {
	Images    []string
	Audio     []string
	Video     []string
	Documents []string
	Contacts  []string
	Unknown   []string
}

// Add files path into its bucket.
func (c *Categorized) Add(path string) Kind {
	kind := Classify(path)
	switch kind {
	case Image:
		c.Images = append(c.Images, path)
	case Audio:
		c.Audio = append(c.Audio, path)
	case Video:
		c.Video = append(c.Video, path)
	case Document:
		c.Documents = append(c.Documents, path)
	case Contact:
		c.Contacts = append(c.Contacts, path)
	default:
		c.Unknown = append(c.Unknown, path)
	}
	return kind
}

// Total returns the number of classified (non-unknown) files.
func (c Categorized) Total() int {
	return len(c.Images) + len(c.Audio) + len(c.Video) + len(c.Documents) + len(c.Contacts)
}

// Categorize classifies every path in order.
func Categorize(paths []string) Categorized {
	var c Categorized
	for _, p := range paths {
		c.Add(p)
	}
	return c
}
