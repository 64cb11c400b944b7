package spell

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// legacyConfig mirrors the loosely-typed spell.yaml format that predates
// spell.json. The requires field historically held either a single
// string or a list, so it is decoded leniently and folded into the
// python ecosystem of Dependencies.
type legacyConfig struct {
	Name         string              `yaml:"name"`
	Version      string              `yaml:"version"`
	Description  string              `yaml:"description"`
	Type         string              `yaml:"type"`
	Shell        string              `yaml:"shell_type"`
	EntryPoint   string              `yaml:"entry_point"`
	MainScript   string              `yaml:"main_script"`
	Requires     yaml.Node           `yaml:"requires"`
	Dependencies map[string][]string `yaml:"dependencies"`
	SigilHash    string              `yaml:"sigil_hash"`
}

// FromYAML converts a legacy spell.yaml document into a normalized
// Descriptor. Defaults match the historical reader: type bundled,
// shell_type python, version 1.0.0.
func FromYAML(data []byte) (*Descriptor, error) {
	var cfg legacyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse spell.yaml: %w", err)
	}

	deps := cfg.Dependencies
	if requires, err := decodeRequires(cfg.Requires); err != nil {
		return nil, err
	} else if len(requires) > 0 {
		deps = map[string][]string{"python": requires}
	}

	d := &Descriptor{
		Name:         cfg.Name,
		Version:      cfg.Version,
		Description:  cfg.Description,
		Type:         Type(cfg.Type),
		Shell:        Shell(cfg.Shell),
		EntryPoint:   cfg.EntryPoint,
		MainScript:   cfg.MainScript,
		Dependencies: deps,
		SigilHash:    cfg.SigilHash,
	}
	if d.Type == "" {
		d.Type = TypeBundled
	}
	d.Normalize()
	return d, nil
}

// decodeRequires accepts the two historical shapes of the requires
// field: a bare string or a sequence of strings.
func decodeRequires(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0: // absent
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, fmt.Errorf("malformed requires field: %w", err)
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("malformed requires field: %w", err)
		}
		return list, nil
	default:
		return nil, &ValidationError{Problems: []string{"requires must be a string or a list of strings"}}
	}
}

// FromJSON parses a spell.json descriptor and normalizes it.
func FromJSON(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse spell.json: %w", err)
	}
	d.Normalize()
	return &d, nil
}

// JSON serializes the descriptor in the archive's spell.json form.
func (d *Descriptor) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
