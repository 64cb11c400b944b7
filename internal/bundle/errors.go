package bundle

import "fmt"

// BuildError wraps an I/O failure while assembling an archive. Any
// partially-written archive has already been removed by the time a
// caller sees one, so a retry starts clean.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// IntegrityError reports a sigil hash mismatch between build time and
// extraction. It is fatal: a tampered spell must never run, so callers
// abort instead of degrading. Never retried.
type IntegrityError struct {
	Stored  string
	Current string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("sigil hash mismatch, spell has been tampered with\n  stored:  %s\n  current: %s",
		e.Stored, e.Current)
}

// NotFoundError reports a missing entry file or descriptor.
// Recoverable: the caller fixes the input and retries.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}
