package bundle

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/syntax"

	"grimoire/internal/fetch"
	"grimoire/internal/sigil"
	"grimoire/internal/spell"
)

// Builder assembles spell bundles into a tome directory. Every build
// stages files in a temporary directory that is removed on all exit
// paths; only the finished archive lands in the tome.
type Builder struct {
	TomeDir string
	Fetcher *fetch.Client
	// Force allows overwriting an existing archive of the same name.
	Force bool
	// Progress receives per-file build output; nil silences it.
	Progress io.Writer
}

// NewBuilder creates a builder writing archives into tomeDir.
func NewBuilder(tomeDir string) *Builder {
	return &Builder{
		TomeDir: tomeDir,
		Fetcher: fetch.NewClient(),
	}
}

// Script builds a script-type bundle from a single source file. The
// file is copied verbatim into the spell directory and made executable
// when it is not Python.
func (b *Builder) Script(scriptPath, name, description string) (string, error) {
	info, err := os.Stat(scriptPath)
	if err != nil || info.IsDir() {
		return "", &NotFoundError{What: fmt.Sprintf("script %s", scriptPath)}
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	}
	shell := spell.ShellBash
	if filepath.Ext(scriptPath) == ".py" {
		shell = spell.ShellPython
	}

	stage, err := os.MkdirTemp("", "grimoire_craft_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)

	entryName := filepath.Base(scriptPath)
	dest := filepath.Join(stage, SpellDir, entryName)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := copyFile(scriptPath, dest); err != nil {
		return "", err
	}
	if shell != spell.ShellPython {
		if err := os.Chmod(dest, 0o755); err != nil {
			return "", err
		}
	}
	b.progressf("  » Adding: %s/%s", SpellDir, entryName)

	d := &spell.Descriptor{
		Name:        name,
		Description: description,
		Type:        spell.TypeScript,
		Shell:       shell,
		EntryPoint:  entryName,
	}
	return b.finalize(stage, d)
}

// Macro builds a macro-type bundle from an ordered list of shell
// commands. The generated script carries a bash shebang followed by
// each command on its own line; its syntax is checked before packaging.
func (b *Builder) Macro(name, description string, commands []string) (string, error) {
	if len(commands) == 0 {
		return "", &spell.ValidationError{Problems: []string{"macro spell has no commands"}}
	}

	script := "#!/bin/bash\n\n" + strings.Join(commands, "\n") + "\n"
	if _, err := syntax.NewParser().Parse(strings.NewReader(script), name); err != nil {
		return "", &spell.ValidationError{Problems: []string{fmt.Sprintf("macro syntax error: %v", err)}}
	}

	stage, err := os.MkdirTemp("", "grimoire_craft_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)

	entryName := name + ".fiat"
	dest := filepath.Join(stage, SpellDir, entryName)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, []byte(script), 0o755); err != nil {
		return "", err
	}
	b.progressf("  » Adding: %s/%s", SpellDir, entryName)

	d := &spell.Descriptor{
		Name:        name,
		Description: description,
		Type:        spell.TypeMacro,
		Shell:       spell.ShellShell,
		EntryPoint:  entryName,
	}
	return b.finalize(stage, d)
}

// Dir builds a bundled-type spell from an existing directory. The
// directory's spell/spell.yaml (or root spell.yaml) supplies the
// descriptor; files are copied preserving the spell/ and artifacts/
// layout, with stray top-level files gathered under spell/.
func (b *Builder) Dir(srcDir, description string) (string, error) {
	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return "", &NotFoundError{What: fmt.Sprintf("spell directory %s", srcDir)}
	}

	d, err := loadDirConfig(srcDir)
	if err != nil {
		return "", err
	}
	if description != "" {
		d.Description = description
	}
	d.SigilHash = "" // always recomputed at build time

	stage, err := os.MkdirTemp("", "grimoire_craft_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)

	if err := b.copyBundleTree(srcDir, stage); err != nil {
		return "", err
	}
	return b.finalize(stage, d)
}

// buildConfig is the declarative spell.yaml build input: descriptor
// fields plus optional inline code and an artifacts list.
type buildConfig struct {
	Code      string           `yaml:"code"`
	Artifacts []fetch.Artifact `yaml:"artifacts"`
}

// Config builds a bundled-type spell from a declarative YAML
// configuration: inline entry code plus auxiliary artifacts fetched
// from their declared sources.
func (b *Builder) Config(ctx context.Context, yamlPath string) (string, error) {
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		return "", &NotFoundError{What: fmt.Sprintf("config %s", yamlPath)}
	}

	d, err := spell.FromYAML(data)
	if err != nil {
		return "", err
	}
	if d.EntryPoint == "" {
		d.EntryPoint = "main.py"
	}

	var cfg buildConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", yamlPath, err)
	}

	stage, err := os.MkdirTemp("", "grimoire_craft_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)

	spellDir := filepath.Join(stage, SpellDir)
	if err := os.MkdirAll(spellDir, 0o755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(stage, ArtifactsDir), 0o755); err != nil {
		return "", err
	}

	if cfg.Code != "" {
		scriptPath := filepath.Join(spellDir, filepath.FromSlash(d.EntryPoint))
		if err := os.MkdirAll(filepath.Dir(scriptPath), 0o755); err != nil {
			return "", err
		}
		mode := os.FileMode(0o644)
		if d.Shell != spell.ShellPython {
			mode = 0o755
		}
		if err := os.WriteFile(scriptPath, []byte(cfg.Code), mode); err != nil {
			return "", err
		}
		b.progressf("  » Adding: %s/%s", SpellDir, d.EntryPoint)
	}

	// Nested source descriptor kept inside spell/ for older readers.
	// It is excluded from the digest, so rewriting it is harmless.
	legacy, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(spellDir, LegacyConfig), legacy, 0o644); err != nil {
		return "", err
	}
	b.progressf("  » Adding: %s/%s", SpellDir, LegacyConfig)

	for _, a := range cfg.Artifacts {
		if err := b.Fetcher.Materialize(ctx, a, filepath.Join(stage, ArtifactsDir)); err != nil {
			return "", err
		}
		b.progressf("  » Adding: %s/%s", ArtifactsDir, a.Path)
	}

	return b.finalize(stage, d)
}

// finalize runs the shared tail of every build: validate the
// descriptor, seal the staged files with a digest, derive the sigil,
// write the metadata, and serialize the archive.
func (b *Builder) finalize(stage string, d *spell.Descriptor) (string, error) {
	d.Normalize()
	if err := spell.Validate(d); err != nil {
		return "", err
	}
	if err := b.checkEntryStaged(stage, d.EntryPoint); err != nil {
		return "", err
	}

	digest, err := sigil.Digest(d, stage)
	if err != nil {
		return "", &BuildError{Path: stage, Err: err}
	}
	d.SigilHash = digest
	d.CreatedAt = time.Now().UTC()

	svg, err := sigil.Render(digest, sigil.DefaultSize)
	if err != nil {
		return "", &BuildError{Path: stage, Err: err}
	}
	sigilName := d.Name + SigilSuffix
	if err := os.WriteFile(filepath.Join(stage, sigilName), svg, 0o644); err != nil {
		return "", &BuildError{Path: stage, Err: err}
	}
	b.progressf("  » Manifesting sigil: %s", sigilName)

	meta, err := d.JSON()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(stage, MetadataFile), meta, 0o644); err != nil {
		return "", &BuildError{Path: stage, Err: err}
	}

	if err := os.MkdirAll(b.TomeDir, 0o755); err != nil {
		return "", &BuildError{Path: b.TomeDir, Err: err}
	}
	dest := filepath.Join(b.TomeDir, d.Name+".spell")
	if _, err := os.Stat(dest); err == nil && !b.Force {
		return "", fmt.Errorf("spell %q already exists at %s: %w", d.Name, dest, os.ErrExist)
	}

	if err := Archive(stage, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// checkEntryStaged verifies the entry point was actually materialized,
// probing the same candidate order the resolver uses at run time.
func (b *Builder) checkEntryStaged(stage, entryPoint string) error {
	ep := filepath.FromSlash(entryPoint)
	candidates := []string{
		filepath.Join(stage, SpellDir, ep),
		filepath.Join(stage, ep),
		filepath.Join(stage, SpellDir, SpellDir, ep),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return nil
		}
	}
	return &NotFoundError{What: fmt.Sprintf("entry point %s", entryPoint)}
}

// loadDirConfig reads a source directory's descriptor from
// spell/spell.yaml or spell.yaml.
func loadDirConfig(srcDir string) (*spell.Descriptor, error) {
	for _, p := range []string{
		filepath.Join(srcDir, SpellDir, LegacyConfig),
		filepath.Join(srcDir, LegacyConfig),
	} {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		return spell.FromYAML(data)
	}
	return nil, &NotFoundError{What: fmt.Sprintf("%s in %s", LegacyConfig, srcDir)}
}

// copyBundleTree copies a source directory into the staging layout.
// spell/ and artifacts/ keep their place; anything else at the top
// level is gathered under spell/.
func (b *Builder) copyBundleTree(srcDir, stage string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		src := filepath.Join(srcDir, e.Name())
		var dest string
		switch {
		case e.IsDir() && (e.Name() == SpellDir || e.Name() == ArtifactsDir):
			dest = filepath.Join(stage, e.Name())
		case e.IsDir():
			dest = filepath.Join(stage, SpellDir, e.Name())
		default:
			dest = filepath.Join(stage, SpellDir, e.Name())
		}
		if err := copyPath(src, dest); err != nil {
			return err
		}
		b.progressf("  » Adding: %s", e.Name())
	}
	return nil
}

func copyPath(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return copyFile(src, dest)
	}
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (b *Builder) progressf(format string, args ...any) {
	if b.Progress != nil {
		fmt.Fprintf(b.Progress, format+"\n", args...)
	}
}
