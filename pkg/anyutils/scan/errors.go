package scan

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the scan root does not exist.
var ErrNotFound = errors.New("scan root not found")

// ScanError reports a directory that could not be read.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
