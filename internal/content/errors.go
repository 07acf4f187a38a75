package content

import (
	"errors"
	"fmt"

	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// Sentinel errors for content source operations.
var (
	ErrNotFound       = errors.New("content: not found")
	ErrRateLimited    = errors.New("content: rate limited by server")
	ErrServer         = errors.New("content: server error")
	ErrMalformed      = errors.New("content: malformed response")
	ErrInvalidChapter = errors.New("content: chapter number out of range")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op      string // "listChapters" or "getChapter"
	Chapter int    // zero for list operations
	Err     error
}

func (e *Error) Error() string {
	if e.Chapter != 0 {
		return fmt.Sprintf("content %s [%d]: %v", e.Op, e.Chapter, e.Err)
	}
	return fmt.Sprintf("content %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError attaches operation context and a domain code. Failures that are
// neither a missing chapter nor a 429 are reported as UPSTREAM.
func wrapError(op string, chapter int, err error) error {
	cerr := &Error{Op: op, Chapter: chapter, Err: err}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidChapter):
		return domainerrors.Wrap(cerr, domainerrors.CodeNotFound, "chapter not found")
	case errors.Is(err, ErrRateLimited):
		return domainerrors.Wrap(cerr, domainerrors.CodeRateLimited, "content source is rate limiting requests")
	default:
		return domainerrors.Upstream(cerr, "content source unavailable")
	}
}
