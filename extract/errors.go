package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOpenFailure means no reader could open the buffer as a document.
	ErrOpenFailure = errors.New("document could not be opened")
	// ErrEmptyExtraction means every extraction path produced no text.
	ErrEmptyExtraction = errors.New("no text could be extracted from the document")

	// errUnreadable marks a per-path failure to open the buffer at all, as
	// opposed to a document that opened but had no text.
	errUnreadable = errors.New("unreadable document")
)

// ExtractionError is returned once every strategy has been exhausted. Kind is
// ErrOpenFailure or ErrEmptyExtraction; Warnings lists the per-path failures
// that were swallowed along the way.
type ExtractionError struct {
	Kind     error
	Warnings []string
}

func (e *ExtractionError) Error() string {
	if len(e.Warnings) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Kind, strings.Join(e.Warnings, "; "))
}

func (e *ExtractionError) Unwrap() error {
	return e.Kind
}

// safely runs fn and turns a panic inside a PDF library into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	return fn()
}
