package batch

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for batch processing. Only ErrSetup is fatal to the
// process; every other kind is scoped to a single file or frame and the batch
// continues.
var (
	// ErrSetup marks a missing or broken external tool, detected before any
	// file is processed.
	ErrSetup = errors.New("setup error")
	// ErrProbe marks a file whose metadata could not be obtained; that file
	// is skipped.
	ErrProbe = errors.New("probe error")
	// ErrDecode marks a failed or timed-out frame extraction; the timestamp
	// is retried then abandoned.
	ErrDecode = errors.New("decode error")
	// ErrClassification marks an unreadable or corrupt frame image; the frame
	// is rejected conservatively.
	ErrClassification = errors.New("classification error")
	// ErrValidation marks a malformed sampling request; processing of the one
	// file is aborted.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes tool context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, detail string, err error) error {
	message := buildDetail(component, operation, detail)
	if marker == nil {
		marker = ErrDecode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, message, err)
	}
	return fmt.Errorf("%w: %s", marker, message)
}

// Fatal reports whether the error must abort the whole run.
func Fatal(err error) bool {
	return errors.Is(err, ErrSetup)
}

func buildDetail(component, operation, detail string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		parts = append(parts, detail)
	}
	if len(parts) == 0 {
		return "batch failure"
	}
	return strings.Join(parts, ": ")
}
