package execute

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"grimoire/internal/bundle"
	"grimoire/internal/spell"
)

func makeWorkspace(t *testing.T, d *spell.Descriptor, files map[string]string) *bundle.Workspace {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	d.Normalize()
	return &bundle.Workspace{Dir: dir, Descriptor: d}
}

func TestCandidates(t *testing.T) {
	got := Candidates("/work", "run.py")
	want := []string{
		filepath.Join("/work", "spell", "run.py"),
		filepath.Join("/work", "run.py"),
		filepath.Join("/work", "spell", "spell", "run.py"),
	}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("prefers spell subdirectory", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{EntryPoint: "run.sh", Shell: spell.ShellShell},
			map[string]string{
				"spell/run.sh": "echo nested\n",
				"run.sh":       "echo root\n",
			})
		r := NewRunner(ws, nil, nil)
		entry, err := r.Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if entry != filepath.Join(ws.Dir, "spell", "run.sh") {
			t.Errorf("Resolve() = %q, want spell/run.sh candidate", entry)
		}
		if r.State() != StateFound {
			t.Errorf("State = %q, want %q", r.State(), StateFound)
		}
	})

	t.Run("falls back to workspace root", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{EntryPoint: "run.sh", Shell: spell.ShellShell},
			map[string]string{"run.sh": "echo root\n"})
		entry, err := NewRunner(ws, nil, nil).Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if entry != filepath.Join(ws.Dir, "run.sh") {
			t.Errorf("Resolve() = %q, want root candidate", entry)
		}
	})

	t.Run("reaches doubly nested legacy layout", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{EntryPoint: "run.sh", Shell: spell.ShellShell},
			map[string]string{"spell/spell/run.sh": "echo deep\n"})
		entry, err := NewRunner(ws, nil, nil).Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if entry != filepath.Join(ws.Dir, "spell", "spell", "run.sh") {
			t.Errorf("Resolve() = %q, want doubly nested candidate", entry)
		}
	})

	t.Run("missing entry reports candidates and contents", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{EntryPoint: "ghost.sh", Shell: spell.ShellShell},
			map[string]string{"spell/other.txt": "x"})
		r := NewRunner(ws, nil, nil)
		_, err := r.Resolve()

		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("Resolve() error = %v, want *NotFoundError", err)
		}
		if r.State() != StateNotFound {
			t.Errorf("State = %q, want %q", r.State(), StateNotFound)
		}
		if len(nf.Candidates) != 3 {
			t.Errorf("Candidates = %v, want 3 probe paths", nf.Candidates)
		}
		if len(nf.WorkspaceFiles) != 1 || nf.WorkspaceFiles[0] != "spell/other.txt" {
			t.Errorf("WorkspaceFiles = %v, want [spell/other.txt]", nf.WorkspaceFiles)
		}
		if !strings.Contains(nf.Error(), "ghost.sh") {
			t.Errorf("error %q does not name the entry point", nf.Error())
		}
	})
}

func TestRunShell(t *testing.T) {
	t.Run("macro runs commands in order", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{
			Name: "seq", Description: "d", EntryPoint: "seq.fiat",
			Type: spell.TypeMacro, Shell: spell.ShellShell,
		}, map[string]string{"spell/seq.fiat": "#!/bin/bash\n\necho one\necho two\n"})

		var out bytes.Buffer
		r := NewRunner(ws, &out, &out)
		code, err := r.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
		if got := out.String(); got != "one\ntwo\n" {
			t.Errorf("output = %q, want %q", got, "one\ntwo\n")
		}
		if r.State() != StateSucceeded {
			t.Errorf("State = %q, want %q", r.State(), StateSucceeded)
		}
	})

	t.Run("nonzero exit surfaces code and failed state", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{
			Name: "fail", Description: "d", EntryPoint: "fail.sh",
			Type: spell.TypeScript, Shell: spell.ShellBash,
		}, map[string]string{"spell/fail.sh": "#!/bin/bash\nexit 3\n"})

		r := NewRunner(ws, nil, nil)
		code, err := r.Run(context.Background(), nil)

		var xerr *ExecutionError
		if !errors.As(err, &xerr) {
			t.Fatalf("Run() error = %v, want *ExecutionError", err)
		}
		if code != 3 || xerr.ExitCode != 3 {
			t.Errorf("exit code = %d (err %d), want 3", code, xerr.ExitCode)
		}
		if r.State() != StateFailed {
			t.Errorf("State = %q, want %q", r.State(), StateFailed)
		}
	})

	t.Run("arguments reach the script", func(t *testing.T) {
		ws := makeWorkspace(t, &spell.Descriptor{
			Name: "args", Description: "d", EntryPoint: "args.sh",
			Type: spell.TypeScript, Shell: spell.ShellBash,
		}, map[string]string{"spell/args.sh": "#!/bin/bash\necho \"$1-$2\"\n"})

		var out bytes.Buffer
		code, err := NewRunner(ws, &out, &out).Run(context.Background(), []string{"a", "b"})
		if err != nil || code != 0 {
			t.Fatalf("Run() = %d, %v", code, err)
		}
		if got := strings.TrimSpace(out.String()); got != "a-b" {
			t.Errorf("output = %q, want a-b", got)
		}
	})
}

func TestRunEmbedded(t *testing.T) {
	ws := makeWorkspace(t, &spell.Descriptor{
		Name: "emb", Description: "d", EntryPoint: "emb.fiat",
		Type: spell.TypeMacro, Shell: spell.ShellShell,
	}, map[string]string{"spell/emb.fiat": "echo \"emb-$1\"\n"})

	var out bytes.Buffer
	r := NewRunner(ws, &out, &out)
	entry, err := r.Resolve()
	if err != nil {
		t.Fatal(err)
	}

	code, err := r.runEmbedded(context.Background(), entry, []string{"x"})
	if err != nil {
		t.Fatalf("runEmbedded() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := strings.TrimSpace(out.String()); got != "emb-x" {
		t.Errorf("output = %q, want emb-x", got)
	}
}

func TestRunPython(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		if _, err := exec.LookPath("python"); err != nil {
			t.Skip("no python interpreter available")
		}
	}

	ws := makeWorkspace(t, &spell.Descriptor{
		Name: "hello", Description: "d", EntryPoint: "hello.py",
		Type: spell.TypeScript, Shell: spell.ShellPython,
	}, map[string]string{"spell/hello.py": "print('hello from python')\n"})

	var out bytes.Buffer
	code, err := NewRunner(ws, &out, &out).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := strings.TrimSpace(out.String()); got != "hello from python" {
		t.Errorf("output = %q", got)
	}
}

func TestInvoke(t *testing.T) {
	buildMacro := func(t *testing.T) string {
		t.Helper()
		tome := t.TempDir()
		dest, err := bundle.NewBuilder(tome).Macro("say", "prints", []string{"echo invoked"})
		if err != nil {
			t.Fatal(err)
		}
		return dest
	}

	t.Run("verified bundle runs", func(t *testing.T) {
		var out bytes.Buffer
		degraded := false
		code, err := Invoke(context.Background(), buildMacro(t), nil, &out, &out,
			func(string) error { degraded = true; return nil })
		if err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
		if degraded {
			t.Error("degraded callback fired for a verified bundle")
		}
		if got := strings.TrimSpace(out.String()); got != "invoked" {
			t.Errorf("output = %q, want invoked", got)
		}
	})

	t.Run("tampered bundle never runs", func(t *testing.T) {
		dest := buildMacro(t)

		ws, err := bundle.Extract(dest)
		if err != nil {
			t.Fatal(err)
		}
		defer ws.Close()
		if err := os.WriteFile(filepath.Join(ws.Dir, "spell", "say.fiat"),
			[]byte("#!/bin/bash\n\necho hijacked\n"), 0o755); err != nil {
			t.Fatal(err)
		}
		tampered := filepath.Join(t.TempDir(), "say.spell")
		if err := bundle.Archive(ws.Dir, tampered); err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		_, err = Invoke(context.Background(), tampered, nil, &out, &out, nil)
		var ierr *bundle.IntegrityError
		if !errors.As(err, &ierr) {
			t.Fatalf("Invoke() error = %v, want *bundle.IntegrityError", err)
		}
		if out.Len() != 0 {
			t.Errorf("tampered spell produced output: %q", out.String())
		}
	})

	t.Run("degraded refusal blocks execution", func(t *testing.T) {
		legacy := filepath.Join(t.TempDir(), "old.spell")
		if err := os.WriteFile(legacy, []byte("echo legacy\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		refusal := errors.New("refused")
		_, err := Invoke(context.Background(), legacy, nil, &out, &out,
			func(string) error { return refusal })
		if !errors.Is(err, refusal) {
			t.Fatalf("Invoke() error = %v, want refusal to propagate", err)
		}
		if out.Len() != 0 {
			t.Errorf("refused spell produced output: %q", out.String())
		}
	})

	t.Run("degraded acceptance runs legacy file", func(t *testing.T) {
		legacy := filepath.Join(t.TempDir(), "old.spell")
		if err := os.WriteFile(legacy, []byte("echo legacy\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		var reason string
		code, err := Invoke(context.Background(), legacy, nil, &out, &out,
			func(r string) error { reason = r; return nil })
		if err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
		if reason == "" {
			t.Error("degraded reason is empty")
		}
		if got := strings.TrimSpace(out.String()); got != "legacy" {
			t.Errorf("output = %q, want legacy", got)
		}
	})
}
