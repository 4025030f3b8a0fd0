// Package execx runs external commands with captured output, explicit
// exit-code extraction, and platform-appropriate process-tree termination.
//
// Every provisioning stage invokes exactly one subprocess and inspects its
// exit status immediately; this package is the single place that behavior
// lives. OS differences (process groups vs. job-less kill) are confined to
// the build-tagged sysproc files.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Result captures everything a stage needs to classify an invocation.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte

	// Stderr is the captured standard error.
	Stderr []byte

	// ExitCode is the process exit code. 0 indicates success.
	ExitCode int
}

// Runner executes commands in a fixed working directory.
//
// Unlike a shell-sourced activation script, the runner never mutates the
// parent process environment: callers address the isolated environment's
// binaries by absolute path and the host environment is inherited as-is,
// optionally extended with Extra entries.
type Runner struct {
	// Dir is the working directory for invoked commands.
	Dir string

	// Extra holds additional KEY=VALUE entries appended to the inherited
	// environment. Optional.
	Extra []string
}

// NewRunner creates a Runner rooted at dir.
func NewRunner(dir string) *Runner {
	return &Runner{Dir: dir}
}

// Run starts name with args and waits for completion or context cancellation.
//
// A non-nil error means the command could not be run at all (binary missing,
// context cancelled); a command that ran and exited non-zero returns a
// Result with the exit code and a nil error. Callers own the
// success/failure classification.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if name == "" {
		return nil, fmt.Errorf("command name is empty")
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), r.Extra...)
	cmd.SysProcAttr = sysProcAttr()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			killTree(cmd.Process)
		}
		<-done // wait for the process to actually exit
		return nil, fmt.Errorf("running %s: %w", name, ctx.Err())
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("running %s: %w", name, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}

// StderrTail returns at most n trailing bytes of stderr as a string, for
// inclusion in diagnostics without flooding the console.
func (res *Result) StderrTail(n int) string {
	if res == nil || len(res.Stderr) == 0 {
		return ""
	}
	b := bytes.TrimSpace(res.Stderr)
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
