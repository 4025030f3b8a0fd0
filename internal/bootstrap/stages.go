package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"envboot/internal/manifest"
	"envboot/internal/pyenv"
	"envboot/internal/state"
)

// checkInterpreter resolves a compatible system interpreter. This stage
// performs no filesystem mutation, so an absent interpreter leaves the
// project untouched.
func (b *Bootstrap) checkInterpreter(ctx context.Context) error {
	candidates := pyenv.DefaultCandidates()
	if b.Config.Python != "" {
		candidates = append([]string{b.Config.Python}, candidates...)
	}

	loc := &pyenv.Locator{Runner: b.runner, Candidates: candidates, Min: b.minVer}
	interp, err := loc.Locate(ctx)
	if err != nil {
		return fmt.Errorf("python interpreter not found or unsupported: %w", err)
	}

	b.interp = interp
	b.Logger.Info("interpreter.resolved", "path", interp.Path, "version", interp.Version.String())
	if b.Recorder != nil {
		if rerr := b.Recorder.SetInterpreter(interp.Path); rerr != nil {
			b.Logger.Warn("state.record_interpreter_failed", "error", rerr)
		}
	}
	return nil
}

// createEnvironment provisions the venv directory. Re-running against an
// existing directory is safe: the venv module upgrades in place.
func (b *Bootstrap) createEnvironment(ctx context.Context) error {
	return b.venv.Create(ctx, b.runner, b.interp)
}

// bindEnvironment verifies the environment is addressable and working. From
// here on every package operation targets the venv interpreter binary; the
// ambient environment is never mutated.
func (b *Bootstrap) bindEnvironment(ctx context.Context) error {
	if err := b.venv.Inspect(ctx, b.runner); err != nil {
		return fmt.Errorf("environment is corrupt or incomplete: %w", err)
	}
	b.Logger.Info("environment.bound", "python", b.venv.Python())
	return nil
}

// upgradeInstaller upgrades pip inside the environment. Advisory: a stale
// pip can still install a fully pinned manifest.
func (b *Bootstrap) upgradeInstaller(ctx context.Context) error {
	installer := b.installer()
	if err := installer.UpgradeSelf(ctx); err != nil {
		return fmt.Errorf("pip self-upgrade failed (continuing with bundled pip): %w", err)
	}
	return nil
}

// installDependencies installs every manifest entry in order, snapshotting
// each outcome. The first failure halts the stage; earlier packages remain
// installed and their snapshots say so.
func (b *Bootstrap) installDependencies(ctx context.Context) error {
	man, err := manifest.Load(b.Config.Manifest)
	if err != nil {
		return err
	}
	b.Logger.Info("manifest.loaded", "path", man.Path, "packages", len(man.Entries))

	installer := b.installer()
	for i, entry := range man.Entries {
		err := installer.Install(ctx, entry.Raw)
		b.recordPackage(i, entry, err)
		if err != nil {
			var instErr *pyenv.InstallError
			if errors.As(err, &instErr) {
				return fmt.Errorf("installing %s (entry %d of %d): %w", entry.Name, i+1, len(man.Entries), err)
			}
			return err
		}
		b.Logger.Debug("package.installed", "name", entry.Name, "spec", entry.Raw)
	}
	return nil
}

func (b *Bootstrap) recordPackage(index int, entry manifest.Entry, installErr error) {
	if b.Recorder == nil {
		return
	}
	snap := state.PackageSnapshot{
		Index:     index,
		Name:      entry.Name,
		Spec:      entry.Raw,
		Installed: installErr == nil,
	}
	var instErr *pyenv.InstallError
	if errors.As(installErr, &instErr) {
		snap.ExitCode = instErr.ExitCode
		snap.Detail = instErr.Detail
	} else if installErr != nil {
		snap.Detail = installErr.Error()
	}
	if err := b.Recorder.RecordPackage(snap); err != nil {
		b.Logger.Warn("state.record_package_failed", "name", entry.Name, "error", err)
	}
}

// verifyImports probes the fixed verification set inside the environment.
// Advisory: the install stage's exit status is the authoritative signal;
// import health is a proxy reported as a warning.
func (b *Bootstrap) verifyImports(ctx context.Context) error {
	if b.Config.SkipVerify {
		b.Logger.Info("verification.skipped")
		return nil
	}
	failures, err := pyenv.VerifyImports(ctx, b.runner, b.venv.Python(), b.Config.VerifyModules)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		return nil
	}
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = f.String()
	}
	return fmt.Errorf("%d of %d verification imports failed: %s",
		len(failures), len(b.Config.VerifyModules), strings.Join(parts, "; "))
}

// printReport emits the fixed instructional block. It only runs when the
// install stage succeeded, because every earlier fatal stage halts the
// chain.
func (b *Bootstrap) printReport(context.Context) error {
	display := pyenv.NewVenv(b.displayEnvDir())
	runCmd := fmt.Sprintf("%s -m uvicorn main:app --host 0.0.0.0 --port 8000", display.Python())
	b.Printer.Instructions(display.ActivateHint(), runCmd, "Ctrl+C (and `deactivate` if you activated the environment)")
	return nil
}

// displayEnvDir prefers a project-relative path in instruction text.
func (b *Bootstrap) displayEnvDir() string {
	rel, err := filepath.Rel(b.Config.ProjectRoot, b.Config.EnvDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return b.Config.EnvDir
	}
	return rel
}

func (b *Bootstrap) installer() *pyenv.Installer {
	return &pyenv.Installer{
		Runner: b.runner,
		Python: b.venv.Python(),
		Quiet:  !b.Config.Verbose,
	}
}
