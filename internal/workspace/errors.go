package workspace

import (
	"errors"
	"fmt"
)

// ExtractionError reports an input archive that could not be opened or
// extracted.
type ExtractionError struct {
	// Archive is the path of the input archive.
	Archive string

	// Index is the position of the archive in the input list.
	Index int

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("EXTRACTION_FAILED: archive %d (%s): %v", e.Index, e.Archive, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsExtractionError returns true if err is or wraps an ExtractionError.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
