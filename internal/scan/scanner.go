// Package scan sorts user-supplied paths into a transcript and attachment
// files, extracting ZIP archives on the way.
package scan

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxEntrySize caps each extracted archive entry. Larger entries fail the
// extraction rather than being cut short.
var maxEntrySize int64 = 1 << 30

var ErrNoTranscript = errors.New("no transcript (.txt) among the inputs")

// Inputs are the files one conversion run works from.
type Inputs struct {
	Transcript  string
	Attachments []string
	Ignored     []string // transcripts superseded by a later one
	TempDirs    []string // extraction directories, removed by Cleanup
}

// Cleanup removes every extraction directory. It is safe to call twice.
func (in *Inputs) Cleanup() error {
	var errs []error
	for _, dir := range in.TempDirs {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}
	in.TempDirs = nil
	return errors.Join(errs...)
}

func (in *Inputs) add(path string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		if in.Transcript != "" {
			in.Ignored = append(in.Ignored, in.Transcript)
		}
		in.Transcript = path
	default:
		in.Attachments = append(in.Attachments, path)
	}
}

// Collect triages paths: a .zip is extracted to a temporary directory and its
// files triaged in turn, a directory is walked, a .txt becomes the transcript
// (the last one wins) and anything else is an attachment. On error every
// extraction directory created so far is removed.
func Collect(paths []string) (*Inputs, error) {
	in := &Inputs{}
	for _, p := range paths {
		if err := in.collect(p); err != nil {
			in.Cleanup()
			return nil, err
		}
	}
	if in.Transcript == "" {
		in.Cleanup()
		return nil, ErrNoTranscript
	}
	return in, nil
}

func (in *Inputs) collect(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	switch {
	case info.IsDir():
		return in.walk(path)
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		dir, err := os.MkdirTemp("", "whatshtml-*")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		in.TempDirs = append(in.TempDirs, dir)
		if err := ExtractZip(path, dir); err != nil {
			return fmt.Errorf("extract %s: %w", filepath.Base(path), err)
		}
		return in.walk(dir)
	default:
		in.add(path)
		return nil
	}
}

func (in *Inputs) walk(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		base := info.Name()
		if info.IsDir() {
			if path != root && (base == "__MACOSX" || strings.HasPrefix(base, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		in.add(path)
		return nil
	})
}

// ExtractZip extracts zipPath into destDir. Entries that would land outside
// destDir are skipped; an entry over 1 GiB is an error.
func ExtractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(name) {
			continue
		}
		destPath := filepath.Join(destDir, name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o750); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
			return err
		}
		if err := extractZipFile(f, destPath); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, destPath string) error {
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		outFile.Close()
		return err
	}
	defer rc.Close()

	n, err := io.Copy(outFile, io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		outFile.Close()
		return err
	}
	if n > maxEntrySize {
		outFile.Close()
		return fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return outFile.Close()
}
