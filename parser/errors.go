package parser

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound         = errors.New("file does not exist")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrFileTooLarge         = errors.New("file exceeds size limit")
	ErrEmptyFile            = errors.New("file is empty")
)

// ValidationError is returned when a file fails the eligibility check and
// was therefore never read.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("file %s should not be processed: %s: %s", e.Path, e.Err, e.Reason)
	}
	return fmt.Sprintf("file %s should not be processed: %s", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
