// Package bundle assembles, serializes, extracts, and verifies spell
// archives. An archive is a ZIP with spell.json at its root, the entry
// script under spell/, auxiliary files under artifacts/, and a
// generated <name>_sigil.svg. The archive is the sole persisted form:
// every execution extracts a fresh throwaway copy.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MetadataFile is the descriptor filename at the archive root.
	MetadataFile = "spell.json"
	// SpellDir is the conventional subdirectory holding the entry
	// script and any nested legacy spell.yaml.
	SpellDir = "spell"
	// ArtifactsDir holds auxiliary files.
	ArtifactsDir = "artifacts"
	// LegacyConfig is the nested YAML descriptor read as a fallback.
	LegacyConfig = "spell.yaml"
	// SigilSuffix names the generated sigil image.
	SigilSuffix = "_sigil.svg"
)

// Archive serializes stageDir into a ZIP at destPath. Entries are
// written in sorted path order so identical stagings produce identical
// archives. A partially-written archive is deleted on any failure.
func Archive(stageDir, destPath string) error {
	if err := writeArchive(stageDir, destPath); err != nil {
		os.Remove(destPath)
		return &BuildError{Path: destPath, Err: err}
	}
	return nil
}

func writeArchive(stageDir, destPath string) error {
	var rels []string
	err := filepath.WalkDir(stageDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(stageDir, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(rels)

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)

	for _, rel := range rels {
		w, err := zw.Create(rel)
		if err != nil {
			zw.Close()
			out.Close()
			return err
		}
		f, err := os.Open(filepath.Join(stageDir, filepath.FromSlash(rel)))
		if err != nil {
			zw.Close()
			out.Close()
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// unzip extracts every archive entry into destDir, refusing paths that
// would escape it.
func unzip(r *zip.ReadCloser, destDir string) error {
	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		dest := filepath.Join(destDir, name)
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes the workspace", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o600)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
