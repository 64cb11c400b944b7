package spell

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// AllowedExtensions lists the entry point file extensions a bundle may
// declare. Anything else is rejected at build time and again on extract.
var AllowedExtensions = []string{".py", ".sh", ".spell", ".fiat"}

// requiredFields are checked as a batch so a caller sees every missing
// field at once, not just the first.
var requiredFields = []string{"name", "version", "description", "type", "entry_point"}

// ValidationError reports everything wrong with a descriptor in one go.
type ValidationError struct {
	Missing  []string // required fields absent from the descriptor
	Problems []string // invalid enum values, bad extensions, malformed shapes
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	parts = append(parts, e.Problems...)
	return "invalid descriptor: " + strings.Join(parts, "; ")
}

// Validate checks a normalized descriptor against the schema. It is a
// pure function over the descriptor: no side effects, and it never
// fills in a required field. All failures are collected into a single
// ValidationError.
func Validate(d *Descriptor) error {
	verr := &ValidationError{}

	fields := map[string]string{
		"name":        d.Name,
		"version":     d.Version,
		"description": d.Description,
		"type":        string(d.Type),
		"entry_point": d.EntryPoint,
	}
	for _, f := range requiredFields {
		if fields[f] == "" {
			verr.Missing = append(verr.Missing, f)
		}
	}

	if d.Type != "" && !d.Type.IsValid() {
		verr.Problems = append(verr.Problems, fmt.Sprintf("invalid spell type: %q", d.Type))
	}
	if d.Shell != "" && !d.Shell.IsValid() {
		verr.Problems = append(verr.Problems, fmt.Sprintf("invalid shell type: %q", d.Shell))
	}

	if d.EntryPoint != "" && !AllowedExtension(d.EntryPoint) {
		verr.Problems = append(verr.Problems,
			fmt.Sprintf("invalid entry point file type: %q (allowed: %s)",
				d.EntryPoint, strings.Join(AllowedExtensions, ", ")))
	}

	for _, eco := range sortedKeys(d.Dependencies) {
		for i, dep := range d.Dependencies[eco] {
			if strings.TrimSpace(dep) == "" {
				verr.Problems = append(verr.Problems,
					fmt.Sprintf("dependencies[%s][%d] is empty", eco, i))
			}
		}
	}

	if len(verr.Missing) > 0 || len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// AllowedExtension reports whether the entry point's extension is in
// the allowed set.
func AllowedExtension(entryPoint string) bool {
	ext := strings.ToLower(filepath.Ext(entryPoint))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
