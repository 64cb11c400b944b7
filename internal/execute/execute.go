// Package execute resolves a spell's entry point inside an extracted
// workspace and dispatches it to the right interpreter.
package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"grimoire/internal/bundle"
	"grimoire/internal/spell"
)

// State tracks the resolver's progress through one execution.
type State string

const (
	StateSearching State = "searching"
	StateFound     State = "found"
	StateNotFound  State = "not_found"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// NotFoundError reports an entry point absent from every candidate
// path. WorkspaceFiles lists what was actually extracted, for
// diagnostics.
type NotFoundError struct {
	Entry          string
	Candidates     []string
	WorkspaceFiles []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry point %s not found (tried: %s)",
		e.Entry, strings.Join(e.Candidates, ", "))
}

// ExecutionError reports a process that ran and failed, or could not
// be started. Recoverable: the caller decides whether to surface it.
type ExecutionError struct {
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spell execution failed: %v", e.Err)
	}
	return fmt.Sprintf("spell execution failed with code %d", e.ExitCode)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Candidates returns the ordered entry point probe paths for a
// workspace. The order is a compatibility contract with older
// archives: conventional spell/ subdirectory first, workspace root
// second, then the doubly-nested legacy layout. First existing wins.
func Candidates(workspaceDir, entryPoint string) []string {
	ep := filepath.FromSlash(entryPoint)
	return []string{
		filepath.Join(workspaceDir, bundle.SpellDir, ep),
		filepath.Join(workspaceDir, ep),
		filepath.Join(workspaceDir, bundle.SpellDir, bundle.SpellDir, ep),
	}
}

// Runner executes one extracted spell. Zero value is not usable; use
// NewRunner.
type Runner struct {
	ws     *bundle.Workspace
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	state  State
}

// NewRunner creates a runner over an extracted workspace, writing
// process output to stdout and stderr.
func NewRunner(ws *bundle.Workspace, stdout, stderr io.Writer) *Runner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Runner{
		ws:     ws,
		stdout: stdout,
		stderr: stderr,
		stdin:  os.Stdin,
		state:  StateSearching,
	}
}

// State returns the runner's current state.
func (r *Runner) State() State {
	return r.state
}

// Resolve locates the entry point among the candidate paths.
func (r *Runner) Resolve() (string, error) {
	r.state = StateSearching
	candidates := Candidates(r.ws.Dir, r.ws.Descriptor.EntryPoint)
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			r.state = StateFound
			return c, nil
		}
	}
	r.state = StateNotFound
	return "", &NotFoundError{
		Entry:          r.ws.Descriptor.EntryPoint,
		Candidates:     candidates,
		WorkspaceFiles: r.ws.Files(),
	}
}

// Run resolves and executes the entry point with the given arguments.
// The returned exit code is the process's own; a nonzero code comes
// with an ExecutionError but is not escalated further.
func (r *Runner) Run(ctx context.Context, args []string) (int, error) {
	entry, err := r.Resolve()
	if err != nil {
		return -1, err
	}

	r.state = StateRunning
	var code int
	switch r.ws.Descriptor.Shell {
	case spell.ShellPython:
		code, err = r.runPython(ctx, entry, args)
	case spell.ShellBash, spell.ShellShell:
		code, err = r.runShell(ctx, entry, args)
	default:
		code, err = -1, &ExecutionError{ExitCode: -1,
			Err: fmt.Errorf("unsupported shell type: %q", r.ws.Descriptor.Shell)}
	}

	if err != nil || code != 0 {
		r.state = StateFailed
	} else {
		r.state = StateSucceeded
	}
	return code, err
}

func (r *Runner) runPython(ctx context.Context, entry string, args []string) (int, error) {
	interpreter, err := findPython()
	if err != nil {
		return -1, &ExecutionError{ExitCode: -1, Err: err}
	}

	cmd := exec.CommandContext(ctx, interpreter, append([]string{entry}, args...)...)
	return r.runCmd(cmd)
}

func (r *Runner) runShell(ctx context.Context, entry string, args []string) (int, error) {
	if err := os.Chmod(entry, 0o755); err != nil {
		return -1, &ExecutionError{ExitCode: -1, Err: err}
	}

	shell, err := findShell()
	if err != nil {
		// No usable shell binary on this platform; fall back to the
		// embedded POSIX interpreter.
		return r.runEmbedded(ctx, entry, args)
	}

	cmd := exec.CommandContext(ctx, shell, append([]string{entry}, args...)...)
	return r.runCmd(cmd)
}

func (r *Runner) runCmd(cmd *exec.Cmd) (int, error) {
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return code, &ExecutionError{ExitCode: code}
		}
		return -1, &ExecutionError{ExitCode: -1, Err: err}
	}
	return 0, nil
}

// findPython prefers python3, accepting python for systems that only
// ship the unversioned name.
func findPython() (string, error) {
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found in PATH")
}

// findShell probes the usual bash locations, then sh.
func findShell() (string, error) {
	if path, err := exec.LookPath("bash"); err == nil {
		return path, nil
	}
	for _, candidate := range []string{"/bin/bash", "/usr/bin/bash", "/usr/local/bin/bash", "/bin/sh"} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("sh"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no shell found")
}
