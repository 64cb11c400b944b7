// Package config resolves the sanctum: the storage root holding built
// spell archives and cached remote scripts.
//
// Resolution order: SANCTUM_PATH environment variable, then the
// optional config file (~/.config/grimoire/config.toml, honoring
// XDG_CONFIG_HOME), then ~/.sanctum.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// EnvSanctum overrides every other source of the sanctum path.
	EnvSanctum = "SANCTUM_PATH"

	// ConfigDir is the subdirectory name under .config
	ConfigDir = "grimoire"
	// ConfigFile is the optional TOML config filename
	ConfigFile = "config.toml"

	// TomeDirName holds built .spell archives under the sanctum.
	TomeDirName = ".tome"
	// RunesDirName holds raw scripts cached from remote sources.
	RunesDirName = ".runes"

	// BundleExt is the archive file extension.
	BundleExt = ".spell"
)

// Paths holds the resolved sanctum layout.
type Paths struct {
	// Sanctum is the storage root.
	Sanctum string
	// Tome is the directory holding built archives.
	Tome string
	// Runes is the directory holding cached remote scripts.
	Runes string
}

// fileConfig is the shape of config.toml.
type fileConfig struct {
	Sanctum string `toml:"sanctum"`
}

// GetPaths resolves the sanctum layout without creating anything.
func GetPaths() (*Paths, error) {
	sanctum, err := resolveSanctum()
	if err != nil {
		return nil, err
	}
	return &Paths{
		Sanctum: sanctum,
		Tome:    filepath.Join(sanctum, TomeDirName),
		Runes:   filepath.Join(sanctum, RunesDirName),
	}, nil
}

func resolveSanctum() (string, error) {
	if env := os.Getenv(EnvSanctum); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if fromFile, err := loadConfigFile(home); err != nil {
		return "", err
	} else if fromFile != "" {
		return fromFile, nil
	}

	return filepath.Join(home, ".sanctum"), nil
}

// loadConfigFile reads the sanctum path from config.toml if present.
// A missing file is not an error; a malformed one is.
func loadConfigFile(home string) (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	path := filepath.Join(configHome, ConfigDir, ConfigFile)

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	if cfg.Sanctum == "" {
		return "", nil
	}
	if cfg.Sanctum == "~" || strings.HasPrefix(cfg.Sanctum, "~/") {
		return filepath.Join(home, strings.TrimPrefix(cfg.Sanctum, "~")), nil
	}
	return cfg.Sanctum, nil
}

// EnsureDirs creates the sanctum directory tree.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.Sanctum, p.Tome, p.Runes} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// FindSpell locates a stored archive by name. The .spell extension is
// optional on input. Wraps os.ErrNotExist when no candidate exists so
// callers can distinguish lookup misses from I/O failures.
func (p *Paths) FindSpell(name string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(name), BundleExt)

	candidates := []string{
		filepath.Join(p.Tome, base+BundleExt),
		filepath.Join(p.Tome, base),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}

	return "", fmt.Errorf("spell %q not found in %s: %w", base, p.Tome, os.ErrNotExist)
}

// ListSpells returns the archives stored in the tome directory,
// sorted by name.
func (p *Paths) ListSpells() ([]string, error) {
	entries, err := os.ReadDir(p.Tome)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var spells []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), BundleExt) {
			spells = append(spells, filepath.Join(p.Tome, e.Name()))
		}
	}
	return spells, nil
}
