package execute

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// runEmbedded executes a shell script with the in-process POSIX
// interpreter. Used when no system shell binary is available, so a
// shell-type spell still runs on minimal platforms.
func (r *Runner) runEmbedded(ctx context.Context, entry string, args []string) (int, error) {
	f, err := os.Open(entry)
	if err != nil {
		return -1, &ExecutionError{ExitCode: -1, Err: err}
	}
	prog, err := syntax.NewParser().Parse(f, entry)
	f.Close()
	if err != nil {
		return -1, &ExecutionError{ExitCode: -1, Err: fmt.Errorf("script syntax error: %w", err)}
	}

	opts := []interp.RunnerOption{
		interp.Dir(r.ws.Dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(r.stdin, r.stdout, r.stderr),
	}
	if len(args) > 0 {
		opts = append(opts, interp.Params(args...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return -1, &ExecutionError{ExitCode: -1, Err: err}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return int(status), &ExecutionError{ExitCode: int(status)}
		}
		return -1, &ExecutionError{ExitCode: -1, Err: err}
	}
	return 0, nil
}
