package pyenv

import (
	"context"
	"fmt"

	"envboot/internal/execx"
)

// Installer drives pip inside the isolated environment via `<python> -m pip`,
// so the environment's own installer is always the one invoked.
type Installer struct {
	// Runner invokes the interpreter.
	Runner *execx.Runner

	// Python is the environment interpreter binary.
	Python string

	// Quiet suppresses pip's progress output (-q). Diagnostics still come
	// from stderr on failure.
	Quiet bool
}

// InstallError carries the failing specifier and pip's exit detail so the
// install stage can snapshot exactly which package broke the run.
type InstallError struct {
	Spec     string
	ExitCode int
	Detail   string
}

func (e *InstallError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pip install %q exited %d", e.Spec, e.ExitCode)
	}
	return fmt.Sprintf("pip install %q exited %d: %s", e.Spec, e.ExitCode, e.Detail)
}

func (i *Installer) pipArgs(args ...string) []string {
	out := []string{"-m", "pip"}
	out = append(out, args...)
	if i.Quiet {
		out = append(out, "--quiet")
	}
	return out
}

// UpgradeSelf upgrades pip itself inside the environment. Callers treat a
// failure as advisory: an out-of-date pip can still install a pinned
// manifest.
func (i *Installer) UpgradeSelf(ctx context.Context) error {
	res, err := i.Runner.Run(ctx, i.Python, i.pipArgs("install", "--upgrade", "pip")...)
	if err != nil {
		return fmt.Errorf("upgrading pip: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("upgrading pip: exited %d: %s", res.ExitCode, res.StderrTail(200))
	}
	return nil
}

// Install installs a single requirement specifier into the environment.
// Failures are returned as *InstallError.
func (i *Installer) Install(ctx context.Context, spec string) error {
	if spec == "" {
		return fmt.Errorf("empty requirement specifier")
	}
	res, err := i.Runner.Run(ctx, i.Python, i.pipArgs("install", spec)...)
	if err != nil {
		return fmt.Errorf("installing %q: %w", spec, err)
	}
	if res.ExitCode != 0 {
		return &InstallError{Spec: spec, ExitCode: res.ExitCode, Detail: res.StderrTail(400)}
	}
	return nil
}
