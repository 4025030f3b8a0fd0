// Package pyenv addresses Python interpreters and isolated environments
// directly by path.
//
// There is deliberately no "activation" here: instead of mutating the
// ambient PATH or interpreter binding the way a sourced activate script
// does, every operation targets a concrete interpreter binary. That keeps
// POSIX and Windows behavior identical apart from path layout.
package pyenv

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"envboot/internal/execx"
)

// versionProbe prints the running interpreter's version as "M.m.p".
const versionProbe = `import sys; print("%d.%d.%d" % sys.version_info[:3])`

// ErrInterpreterNotFound indicates no candidate interpreter resolved on PATH.
var ErrInterpreterNotFound = errors.New("no Python interpreter found on PATH")

// IncompatibleError reports an interpreter that resolved but is too old.
type IncompatibleError struct {
	Path    string
	Version Version
	Min     Version
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("%s is Python %s, need >= %s", e.Path, e.Version, e.Min)
}

// Version is a CPython version triple.
type Version struct {
	Major, Minor, Micro int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// AtLeast reports whether v >= o, comparing major then minor then micro.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Micro >= o.Micro
}

// ParseVersion parses "3", "3.12" or "3.12.4" into a Version.
func ParseVersion(s string) (Version, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	var v Version
	nums := []*int{&v.Major, &v.Minor, &v.Micro}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
		*nums[i] = n
	}
	return v, nil
}

// Interpreter is a resolved, version-checked Python binary.
type Interpreter struct {
	// Path is the resolved binary path.
	Path string

	// Version is the probed interpreter version.
	Version Version
}

// Locator discovers a compatible interpreter from an ordered candidate list.
type Locator struct {
	// Runner invokes candidate binaries.
	Runner *execx.Runner

	// Candidates are binary names or paths tried in order. An explicit
	// configured path should come first.
	Candidates []string

	// Min is the minimum acceptable version.
	Min Version
}

// DefaultCandidates are the interpreter names tried when none is configured.
// "py" covers the Windows launcher.
func DefaultCandidates() []string {
	return []string{"python3", "python", "py"}
}

// Locate resolves the first candidate that exists on PATH and satisfies the
// minimum version. It performs no filesystem mutation.
//
// If every candidate is missing, the error is ErrInterpreterNotFound. If at
// least one resolved but was too old, the error describes that interpreter
// so the diagnostic is actionable.
func (l *Locator) Locate(ctx context.Context) (*Interpreter, error) {
	if l.Runner == nil {
		return nil, fmt.Errorf("nil runner")
	}
	candidates := l.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}

	var tooOld *IncompatibleError
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		path, err := exec.LookPath(cand)
		if err != nil {
			continue
		}

		probed, err := Probe(ctx, l.Runner, path)
		if err != nil {
			// A candidate that resolves but cannot report its version is
			// treated as absent; a later candidate may still work.
			continue
		}
		if !probed.Version.AtLeast(l.Min) {
			if tooOld == nil {
				tooOld = &IncompatibleError{Path: path, Version: probed.Version, Min: l.Min}
			}
			continue
		}
		return probed, nil
	}

	if tooOld != nil {
		return nil, tooOld
	}
	return nil, fmt.Errorf("%w (tried %s)", ErrInterpreterNotFound, strings.Join(candidates, ", "))
}

// Probe runs the version probe against a concrete binary path.
func Probe(ctx context.Context, runner *execx.Runner, path string) (*Interpreter, error) {
	res, err := runner.Run(ctx, path, "-c", versionProbe)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%s exited %d probing version: %s", path, res.ExitCode, res.StderrTail(200))
	}
	v, err := ParseVersion(string(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("%s reported unparsable version: %w", path, err)
	}
	return &Interpreter{Path: path, Version: v}, nil
}
