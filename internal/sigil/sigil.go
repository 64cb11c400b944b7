// Package sigil computes the content digest that seals a spell bundle
// and derives the decorative sigil image from it. The digest is the
// integrity anchor: it must be byte-for-byte reproducible from an
// unmodified extraction. The sigil drawing carries no security weight;
// it is a pure function of the digest and nothing verifies it.
package sigil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grimoire/internal/spell"
)

// chunkSize is the fixed read size used when streaming file contents
// into the hash. Part of the digest contract; do not change.
const chunkSize = 8192

// Excluded reports whether a file is left out of the digest. The
// descriptor files and the sigil image are generated from the hash and
// would otherwise create a circular dependency.
func Excluded(name string) bool {
	base := filepath.Base(name)
	if base == "spell.json" || base == "spell.yaml" {
		return true
	}
	return strings.HasSuffix(base, "_sigil.svg")
}

// Digest computes the hex SHA-256 digest over the descriptor fields and
// every non-excluded file under root.
//
// The accumulation order is fixed: the six metadata fields joined by
// newlines, then each file's slash-separated relative path followed by
// its raw bytes, files sorted lexicographically by that path. Both the
// builder and the verifier run this exact sequence, so a stored hash
// round-trips against a fresh extraction.
func Digest(d *spell.Descriptor, root string) (string, error) {
	h := sha256.New()

	meta := strings.Join([]string{
		d.Name,
		d.Description,
		d.Type.String(),
		d.Version,
		d.EntryPoint,
		d.Shell.String(),
	}, "\n")
	h.Write([]byte(meta))

	var rels []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || Excluded(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	sort.Strings(rels)

	buf := make([]byte, chunkSize)
	for _, rel := range rels {
		h.Write([]byte(rel))
		if err := hashFile(h, filepath.Join(root, filepath.FromSlash(rel)), buf); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(h io.Writer, path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
}
