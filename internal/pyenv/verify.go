package pyenv

import (
	"context"
	"fmt"
	"strings"

	"envboot/internal/execx"
)

// ImportFailure records one verification module that failed to load.
type ImportFailure struct {
	Module string
	Detail string
}

func (f ImportFailure) String() string {
	if f.Detail == "" {
		return f.Module
	}
	return f.Module + ": " + f.Detail
}

// VerifyImports attempts to import each module inside the environment and
// returns the failures in input order.
//
// Import success is a proxy for installation health, not proof of it: the
// install stage's exit status stays authoritative, which is why callers
// treat a non-empty result as a warning rather than a failure.
func VerifyImports(ctx context.Context, runner *execx.Runner, python string, modules []string) ([]ImportFailure, error) {
	var failures []ImportFailure
	for _, mod := range modules {
		mod = strings.TrimSpace(mod)
		if mod == "" {
			continue
		}
		res, err := runner.Run(ctx, python, "-c", fmt.Sprintf("import %s", mod))
		if err != nil {
			return nil, fmt.Errorf("probing import of %s: %w", mod, err)
		}
		if res.ExitCode != 0 {
			failures = append(failures, ImportFailure{Module: mod, Detail: lastLine(res.Stderr)})
		}
	}
	return failures, nil
}

// lastLine extracts the final non-empty stderr line, which for an import
// error is the exception summary.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
