package spell

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Run("main_script alias fills entry_point", func(t *testing.T) {
		d := &Descriptor{MainScript: "run.py"}
		d.Normalize()
		if d.EntryPoint != "run.py" {
			t.Errorf("EntryPoint = %q, want %q", d.EntryPoint, "run.py")
		}
		if d.MainScript != "" {
			t.Errorf("MainScript = %q, want cleared", d.MainScript)
		}
	})

	t.Run("entry_point wins over alias", func(t *testing.T) {
		d := &Descriptor{EntryPoint: "main.py", MainScript: "old.py"}
		d.Normalize()
		if d.EntryPoint != "main.py" {
			t.Errorf("EntryPoint = %q, want %q", d.EntryPoint, "main.py")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		d := &Descriptor{}
		d.Normalize()
		if d.Version != DefaultVersion {
			t.Errorf("Version = %q, want %q", d.Version, DefaultVersion)
		}
		if d.Shell != ShellPython {
			t.Errorf("Shell = %q, want %q", d.Shell, ShellPython)
		}
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		d := &Descriptor{Version: "2.1.0", Shell: ShellBash}
		d.Normalize()
		if d.Version != "2.1.0" || d.Shell != ShellBash {
			t.Errorf("got version=%q shell=%q, want preserved", d.Version, d.Shell)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Descriptor {
		return &Descriptor{
			Name:        "greet",
			Version:     "1.0.0",
			Description: "says hello",
			Type:        TypeScript,
			Shell:       ShellPython,
			EntryPoint:  "greet.py",
		}
	}

	t.Run("valid descriptor passes", func(t *testing.T) {
		if err := Validate(valid()); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("collects all missing fields at once", func(t *testing.T) {
		d := valid()
		d.Name = ""
		d.Description = ""
		err := Validate(d)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate() = %v, want *ValidationError", err)
		}
		if len(verr.Missing) != 2 {
			t.Fatalf("Missing = %v, want 2 entries", verr.Missing)
		}
		for _, want := range []string{"name", "description"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %q", err.Error(), want)
			}
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		d := valid()
		d.Type = "ritual"
		err := Validate(d)
		if err == nil || !strings.Contains(err.Error(), "invalid spell type") {
			t.Errorf("Validate() = %v, want invalid spell type error", err)
		}
	})

	t.Run("rejects unknown shell", func(t *testing.T) {
		d := valid()
		d.Shell = "zsh"
		err := Validate(d)
		if err == nil || !strings.Contains(err.Error(), "invalid shell type") {
			t.Errorf("Validate() = %v, want invalid shell type error", err)
		}
	})

	t.Run("rejects disallowed entry extension", func(t *testing.T) {
		d := valid()
		d.EntryPoint = "greet.rb"
		err := Validate(d)
		if err == nil || !strings.Contains(err.Error(), "invalid entry point file type") {
			t.Errorf("Validate() = %v, want extension error", err)
		}
	})

	t.Run("rejects empty dependency specifier", func(t *testing.T) {
		d := valid()
		d.Dependencies = map[string][]string{"python": {"click", "  "}}
		err := Validate(d)
		if err == nil || !strings.Contains(err.Error(), "dependencies[python][1]") {
			t.Errorf("Validate() = %v, want empty specifier error", err)
		}
	})
}

func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		entry string
		want  bool
	}{
		{"main.py", true},
		{"run.sh", true},
		{"legacy.spell", true},
		{"macro.fiat", true},
		{"MAIN.PY", true},
		{"script.rb", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			if got := AllowedExtension(tt.entry); got != tt.want {
				t.Errorf("AllowedExtension(%q) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestFromYAML(t *testing.T) {
	t.Run("requires as string", func(t *testing.T) {
		d, err := FromYAML([]byte("name: greet\ndescription: hi\nentry_point: greet.py\nrequires: click\n"))
		if err != nil {
			t.Fatalf("FromYAML() error = %v", err)
		}
		got := d.Dependencies["python"]
		if len(got) != 1 || got[0] != "click" {
			t.Errorf("Dependencies[python] = %v, want [click]", got)
		}
	})

	t.Run("requires as list", func(t *testing.T) {
		d, err := FromYAML([]byte("name: greet\ndescription: hi\nentry_point: greet.py\nrequires:\n  - click\n  - rich\n"))
		if err != nil {
			t.Fatalf("FromYAML() error = %v", err)
		}
		got := d.Dependencies["python"]
		if len(got) != 2 || got[0] != "click" || got[1] != "rich" {
			t.Errorf("Dependencies[python] = %v, want [click rich]", got)
		}
	})

	t.Run("requires as mapping is rejected", func(t *testing.T) {
		_, err := FromYAML([]byte("name: greet\nrequires:\n  click: '8.0'\n"))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("FromYAML() error = %v, want *ValidationError", err)
		}
	})

	t.Run("defaults type to bundled", func(t *testing.T) {
		d, err := FromYAML([]byte("name: pack\ndescription: d\nentry_point: main.py\n"))
		if err != nil {
			t.Fatalf("FromYAML() error = %v", err)
		}
		if d.Type != TypeBundled {
			t.Errorf("Type = %q, want %q", d.Type, TypeBundled)
		}
	})

	t.Run("main_script alias", func(t *testing.T) {
		d, err := FromYAML([]byte("name: old\ndescription: d\nmain_script: run.sh\n"))
		if err != nil {
			t.Fatalf("FromYAML() error = %v", err)
		}
		if d.EntryPoint != "run.sh" {
			t.Errorf("EntryPoint = %q, want %q", d.EntryPoint, "run.sh")
		}
	})
}

func TestJSONRoundTrip(t *testing.T) {
	d := &Descriptor{
		Name:         "greet",
		Version:      "1.2.3",
		Description:  "says hello",
		Type:         TypeScript,
		Shell:        ShellBash,
		EntryPoint:   "greet.sh",
		Dependencies: map[string][]string{"python": {"click>=8"}},
		SigilHash:    "abc123",
	}

	data, err := d.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.Name != d.Name || got.Version != d.Version || got.Type != d.Type ||
		got.Shell != d.Shell || got.EntryPoint != d.EntryPoint || got.SigilHash != d.SigilHash {
		t.Errorf("round trip = %+v, want %+v", got, d)
	}
}
