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

	"grimoire/internal/spell"
)

// Workspace is the ephemeral directory one extraction lives in. It is
// exclusively owned by the extraction/verification/execution sequence
// that created it; Close removes it unconditionally.
type Workspace struct {
	Dir        string
	Descriptor *spell.Descriptor
}

// Close deletes the workspace. Safe to call more than once.
func (w *Workspace) Close() error {
	if w.Dir == "" {
		return nil
	}
	err := os.RemoveAll(w.Dir)
	w.Dir = ""
	return err
}

// Files enumerates the workspace contents relative to its root, for
// diagnostics when an entry point cannot be resolved.
func (w *Workspace) Files() []string {
	var files []string
	filepath.WalkDir(w.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if rel, rerr := filepath.Rel(w.Dir, path); rerr == nil {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(files)
	return files
}

// Extract unpacks an archive into a fresh uniquely-named workspace and
// loads its descriptor, re-validating it as a second line of defense
// behind the builder. A file that is not a ZIP at all is treated as a
// legacy bare command list and synthesized into a macro spell. The
// caller owns the returned workspace and must Close it.
func Extract(bundlePath string) (*Workspace, error) {
	r, err := zip.OpenReader(bundlePath)
	if err != nil {
		return extractLegacy(bundlePath)
	}
	defer r.Close()

	dir, err := os.MkdirTemp("", "grimoire_spell_")
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Dir: dir}

	if err := unzip(r, dir); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to extract %s: %w", bundlePath, err)
	}

	d, err := loadDescriptor(dir)
	if err != nil {
		ws.Close()
		return nil, err
	}
	d.Normalize()
	if err := spell.Validate(d); err != nil {
		ws.Close()
		return nil, err
	}

	ws.Descriptor = d
	return ws, nil
}

// loadDescriptor reads spell.json at the workspace root, falling back
// to the legacy nested spell.yaml.
func loadDescriptor(dir string) (*spell.Descriptor, error) {
	if data, err := os.ReadFile(filepath.Join(dir, MetadataFile)); err == nil {
		return spell.FromJSON(data)
	}
	if data, err := os.ReadFile(filepath.Join(dir, SpellDir, LegacyConfig)); err == nil {
		return spell.FromYAML(data)
	}
	return nil, &NotFoundError{What: fmt.Sprintf("metadata (%s or %s/%s)", MetadataFile, SpellDir, LegacyConfig)}
}

// extractLegacy handles pre-archive spell files: a bare list of shell
// commands. The whole file becomes a macro entry script, with the
// descriptor synthesized from the filename and the first comment line.
func extractLegacy(bundlePath string) (*Workspace, error) {
	content, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, &NotFoundError{What: fmt.Sprintf("spell %s", bundlePath)}
	}

	stem := strings.TrimSuffix(filepath.Base(bundlePath), filepath.Ext(bundlePath))
	description := firstComment(string(content))
	if description == "" {
		description = stem
	}

	dir, err := os.MkdirTemp("", "grimoire_spell_")
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Dir: dir}

	entryName := stem + ".fiat"
	dest := filepath.Join(dir, SpellDir, entryName)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		ws.Close()
		return nil, err
	}
	if err := os.WriteFile(dest, content, 0o755); err != nil {
		ws.Close()
		return nil, err
	}

	d := &spell.Descriptor{
		Name:        stem,
		Description: description,
		Type:        spell.TypeMacro,
		Shell:       spell.ShellShell,
		EntryPoint:  entryName,
	}
	d.Normalize()
	if err := spell.Validate(d); err != nil {
		ws.Close()
		return nil, err
	}

	ws.Descriptor = d
	return ws, nil
}

// ReadDescriptor loads an archive's descriptor without extracting the
// whole bundle. Cheap enough to run over every archive in a listing.
func ReadDescriptor(bundlePath string) (*spell.Descriptor, error) {
	r, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("not a spell archive: %s: %w", bundlePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != MetadataFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return spell.FromJSON(data)
	}
	return nil, &NotFoundError{What: MetadataFile}
}

// ListEntries returns the archive's entry names in stored order.
func ListEntries(bundlePath string) ([]string, error) {
	r, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// firstComment returns the first comment line of a script, shebang
// excluded, stripped of its leading markers.
func firstComment(content string) string {
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if i == 0 && strings.HasPrefix(line, "#!") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
