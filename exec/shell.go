package exec

import (
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/bitfield/script"
	"github.com/pkg/errors"
)

type ShellOptions struct {
	WorkDir string
	Env     []string
	Shell   string
	Stdin   string
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Status int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Status)
}

// killGrace bounds how long RunCommand waits for output pipes after the shell
// has been killed.
const killGrace = time.Second

// RunCommand runs cmdStr through the shell with opts.Stdin on its standard
// input. When ctx is done the whole process group is killed.
func RunCommand(ctx context.Context, cmdStr string, opts *ShellOptions) error {
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	wrappedCmd := cmdStr
	if opts.WorkDir != "" {
		wrappedCmd = fmt.Sprintf("cd %q && (\n%s\n)", opts.WorkDir, cmdStr)
	}

	shell := strings.Fields(opts.Shell)
	args := append(shell[1:], "-c", wrappedCmd)

	pipe := script.Echo(opts.Stdin).Filter(func(r io.Reader, w io.Writer) error {
		cmd := osexec.CommandContext(ctx, shell[0], args...)
		cmd.Stdin = r
		cmd.Stdout = w
		cmd.Stderr = opts.Stderr
		cmd.Env = opts.Env
		cmd.WaitDelay = killGrace
		killProcessGroup(cmd)

		err := cmd.Run()
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return &ExitError{Status: exitErr.ExitCode()}
		}
		return err
	})
	_, err := pipe.WithStdout(opts.Stdout).Stdout()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
