// Package spell defines the descriptor schema for spell bundles.
// A descriptor is the authoritative metadata record for one bundle:
// it is created once at build time, serialized into the archive as
// spell.json, and read-only thereafter.
package spell

import "time"

// Type represents the kind of spell
type Type string

const (
	TypeBundled Type = "bundled" // directory of files with an entry script
	TypeScript  Type = "script"  // single script file
	TypeMacro   Type = "macro"   // ordered list of shell commands
)

// String returns the string representation of the type
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the type is recognized
func (t Type) IsValid() bool {
	switch t {
	case TypeBundled, TypeScript, TypeMacro:
		return true
	default:
		return false
	}
}

// Shell represents the interpreter used at execution time
type Shell string

const (
	ShellPython Shell = "python"
	ShellBash   Shell = "bash"
	ShellShell  Shell = "shell"
)

// String returns the string representation of the shell
func (s Shell) String() string {
	return string(s)
}

// IsValid returns true if the shell is recognized
func (s Shell) IsValid() bool {
	switch s {
	case ShellPython, ShellBash, ShellShell:
		return true
	default:
		return false
	}
}

// DefaultVersion is applied when a descriptor omits its version.
const DefaultVersion = "1.0.0"

// Descriptor is the metadata record describing a spell bundle.
// It is serialized as spell.json at the archive root.
type Descriptor struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version,omitempty" json:"version"`
	Description string `yaml:"description" json:"description"`
	Type        Type   `yaml:"type,omitempty" json:"type"`
	Shell       Shell  `yaml:"shell_type,omitempty" json:"shell_type"`
	EntryPoint  string `yaml:"entry_point,omitempty" json:"entry_point"`

	// MainScript is a legacy alias for EntryPoint. Normalize copies it
	// into EntryPoint when the latter is empty; nothing downstream
	// consults it afterwards.
	MainScript string `yaml:"main_script,omitempty" json:"main_script,omitempty"`

	// Dependencies maps an ecosystem name (e.g. "python") to an
	// ordered list of dependency specifiers. Recorded, never installed.
	Dependencies map[string][]string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	// CreatedAt is set once at build time, never mutated.
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at"`

	// SigilHash is the hex digest computed at build time over the
	// descriptor fields and sorted file contents. Immutable once set.
	SigilHash string `yaml:"sigil_hash,omitempty" json:"sigil_hash"`
}

// Normalize applies the main_script alias and field defaults in place.
// Required fields are never filled in; that is the validator's call to
// reject.
func (d *Descriptor) Normalize() {
	if d.EntryPoint == "" && d.MainScript != "" {
		d.EntryPoint = d.MainScript
	}
	d.MainScript = ""
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	if d.Shell == "" {
		d.Shell = ShellPython
	}
}
