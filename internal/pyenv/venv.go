package pyenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"envboot/internal/execx"
)

// Venv is the isolated environment directory tree. The type only encodes
// layout; creation and inspection are explicit operations.
type Venv struct {
	// Root is the environment directory (absolute or relative to the
	// runner's working directory).
	Root string

	// goos selects the path layout; empty means runtime.GOOS. Tests set it
	// to exercise both layouts on one host.
	goos string
}

// NewVenv returns a Venv rooted at root using the current OS layout.
func NewVenv(root string) *Venv {
	return &Venv{Root: root}
}

func (v *Venv) osName() string {
	if v.goos != "" {
		return v.goos
	}
	return runtime.GOOS
}

// BinDir is the scripts directory: bin/ on POSIX, Scripts\ on Windows.
func (v *Venv) BinDir() string {
	if v.osName() == "windows" {
		return filepath.Join(v.Root, "Scripts")
	}
	return filepath.Join(v.Root, "bin")
}

// Python is the environment's interpreter binary path. All package
// operations after environment-bind go through this binary, never through
// the system interpreter.
func (v *Venv) Python() string {
	if v.osName() == "windows" {
		return filepath.Join(v.BinDir(), "python.exe")
	}
	return filepath.Join(v.BinDir(), "python")
}

// ConfigPath is the marker file venv writes at the environment root.
func (v *Venv) ConfigPath() string {
	return filepath.Join(v.Root, "pyvenv.cfg")
}

// ActivateHint is the manual activation command for the final report. The
// tool itself never activates; this is instruction text only.
func (v *Venv) ActivateHint() string {
	if v.osName() == "windows" {
		return filepath.Join(v.Root, "Scripts", "activate.bat")
	}
	return "source " + filepath.ToSlash(filepath.Join(v.Root, "bin", "activate"))
}

// Create provisions the environment with the interpreter's venv module.
//
// venv tolerates an existing target directory (it upgrades in place), which
// is what makes repeated bootstrap runs safe; that behavior is the venv
// module's, not ours.
func (v *Venv) Create(ctx context.Context, runner *execx.Runner, interp *Interpreter) error {
	if interp == nil || interp.Path == "" {
		return fmt.Errorf("no interpreter to create environment with")
	}
	res, err := runner.Run(ctx, interp.Path, "-m", "venv", v.Root)
	if err != nil {
		return fmt.Errorf("creating environment at %s: %w", v.Root, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("creating environment at %s: venv exited %d: %s", v.Root, res.ExitCode, res.StderrTail(400))
	}
	return nil
}

// Inspect verifies the environment is usable: the venv marker exists, the
// interpreter binary exists, and it actually executes. A failure here means
// a corrupt or partially created environment.
func (v *Venv) Inspect(ctx context.Context, runner *execx.Runner) error {
	if _, err := os.Stat(v.ConfigPath()); err != nil {
		return fmt.Errorf("environment at %s has no pyvenv.cfg: %w", v.Root, err)
	}
	py := v.Python()
	if _, err := os.Stat(py); err != nil {
		return fmt.Errorf("environment at %s has no interpreter: %w", v.Root, err)
	}

	res, err := runner.Run(ctx, py, "-c", "import sys; print(sys.prefix)")
	if err != nil {
		return fmt.Errorf("probing environment interpreter: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("environment interpreter exited %d: %s", res.ExitCode, res.StderrTail(200))
	}
	if strings.TrimSpace(string(res.Stdout)) == "" {
		return fmt.Errorf("environment interpreter reported empty prefix")
	}
	return nil
}
