package execute

import (
	"context"
	"io"

	"grimoire/internal/bundle"
)

// Invoke runs a stored archive end to end: integrity check, fresh
// extraction, entry point resolution, and execution. The workspace is
// removed on every exit path.
//
// An integrity mismatch surfaces as a bundle.IntegrityError before
// anything runs; callers must treat it as fatal. A degraded
// verification (no stored hash, legacy file) is reported through
// onDegraded, which may return an error to refuse execution.
func Invoke(ctx context.Context, bundlePath string, args []string,
	stdout, stderr io.Writer, onDegraded func(reason string) error) (int, error) {

	res, err := bundle.Verify(bundlePath)
	if err != nil {
		// IntegrityError lands here: fatal, nothing is executed.
		return -1, err
	}
	if !res.Verified && onDegraded != nil {
		if err := onDegraded(res.Reason); err != nil {
			return -1, err
		}
	}

	ws, err := bundle.Extract(bundlePath)
	if err != nil {
		return -1, err
	}
	defer ws.Close()

	return NewRunner(ws, stdout, stderr).Run(ctx, args)
}
