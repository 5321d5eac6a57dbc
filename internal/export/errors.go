package export

import (
	"errors"
	"fmt"

	"github.com/Zuo-Peng/whatshtml/internal/layout"
)

var (
	// ErrCancelled means the user dismissed a prompt. Nothing was written.
	ErrCancelled = errors.New("export cancelled")

	// ErrEmptyName is returned when the export name is blank.
	ErrEmptyName = layout.ErrEmptyName

	// ErrBusy means another run holds the lock for the same export.
	ErrBusy = errors.New("export is already in progress")
)

// IOError is a filesystem failure that aborts the export.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIO reports whether err is or wraps an *IOError.
func IsIO(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// IsCancelled reports whether err is or wraps ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
