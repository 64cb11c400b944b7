package bundle

import (
	"errors"

	"grimoire/internal/sigil"
)

// Result reports the outcome of an integrity check.
type Result struct {
	Verified    bool
	StoredHash  string
	CurrentHash string
	// Reason explains a non-verified result that is not a hash
	// mismatch (missing descriptor, missing stored hash). These are
	// degraded, non-fatal conditions the caller may choose to reject.
	Reason string
}

// Verify extracts the archive into a throwaway workspace, recomputes
// the digest with the descriptor's own recorded field values as the
// metadata seed, and compares it to the stored sigil hash.
//
// A mismatch additionally returns an IntegrityError; that condition is
// fatal to the current operation and must never be silently bypassed.
// A missing descriptor or stored hash yields Verified=false with a
// Reason and no error.
func Verify(bundlePath string) (*Result, error) {
	ws, err := Extract(bundlePath)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return &Result{Verified: false, Reason: nf.Error()}, nil
		}
		return nil, err
	}
	defer ws.Close()

	stored := ws.Descriptor.SigilHash
	if stored == "" {
		return &Result{Verified: false, Reason: "no stored hash in descriptor"}, nil
	}

	current, err := sigil.Digest(ws.Descriptor, ws.Dir)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Verified:    current == stored,
		StoredHash:  stored,
		CurrentHash: current,
	}
	if !res.Verified {
		return res, &IntegrityError{Stored: stored, Current: current}
	}
	return res, nil
}
