// Package bootstrap defines the seven-stage provisioning sequence and wires
// it to the pipeline engine.
//
// The stage table here is the only place the sequence and its fatal/advisory
// classification exist; both POSIX and Windows execute exactly this chain.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"envboot/internal/config"
	"envboot/internal/execx"
	"envboot/internal/pipeline"
	"envboot/internal/pyenv"
	"envboot/internal/report"
	"envboot/internal/state"
)

// Stage names, used in diagnostics and run records.
const (
	StageInterpreterCheck  = "interpreter-check"
	StageEnvironmentCreate = "environment-create"
	StageEnvironmentBind   = "environment-bind"
	StageInstallerUpgrade  = "installer-upgrade"
	StageDependencyInstall = "dependency-install"
	StageVerification      = "verification"
	StageReport            = "report"
)

// Bootstrap owns one provisioning run. Fields below the dependencies are
// resolved progressively by the stages; strict ordering guarantees each is
// set before the next stage reads it.
type Bootstrap struct {
	Config   *config.Config
	Logger   *slog.Logger
	Printer  *report.Printer
	Recorder *state.Recorder

	runner *execx.Runner
	minVer pyenv.Version

	interp *pyenv.Interpreter
	venv   *pyenv.Venv
}

// New validates static configuration and prepares a Bootstrap.
func New(cfg *config.Config, logger *slog.Logger, printer *report.Printer, recorder *state.Recorder) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if printer == nil {
		return nil, fmt.Errorf("nil printer")
	}
	if logger == nil {
		logger = slog.Default()
	}
	minVer, err := pyenv.ParseVersion(cfg.MinPythonVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid min_python_version: %w", err)
	}
	return &Bootstrap{
		Config:   cfg,
		Logger:   logger,
		Printer:  printer,
		Recorder: recorder,
		runner:   execx.NewRunner(cfg.ProjectRoot),
		minVer:   minVer,
		venv:     pyenv.NewVenv(cfg.EnvDir),
	}, nil
}

// Stages returns the ordered stage chain.
func (b *Bootstrap) Stages() []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name:   StageInterpreterCheck,
			Title:  "Checking for a compatible Python interpreter",
			Policy: pipeline.PolicyFatal,
			Run:    b.checkInterpreter,
		},
		{
			Name:   StageEnvironmentCreate,
			Title:  "Creating the isolated environment",
			Policy: pipeline.PolicyFatal,
			Run:    b.createEnvironment,
		},
		{
			Name:   StageEnvironmentBind,
			Title:  "Binding to the environment interpreter",
			Policy: pipeline.PolicyFatal,
			Run:    b.bindEnvironment,
		},
		{
			Name:   StageInstallerUpgrade,
			Title:  "Upgrading pip inside the environment",
			Policy: pipeline.PolicyAdvisory,
			Run:    b.upgradeInstaller,
		},
		{
			Name:   StageDependencyInstall,
			Title:  "Installing pinned dependencies",
			Policy: pipeline.PolicyFatal,
			Run:    b.installDependencies,
		},
		{
			Name:   StageVerification,
			Title:  "Verifying load-bearing imports",
			Policy: pipeline.PolicyAdvisory,
			Run:    b.verifyImports,
		},
		{
			Name:   StageReport,
			Title:  "Reporting next steps",
			Policy: pipeline.PolicyAdvisory,
			Run:    b.printReport,
		},
	}
}

// Run executes the chain and persists the run record.
//
// Recording failures are logged but never alter the bootstrap outcome.
func (b *Bootstrap) Run(ctx context.Context) (*pipeline.Result, error) {
	if b.Recorder != nil {
		if err := b.Recorder.StartRun(b.Config.EnvDir, b.Config.Manifest); err != nil {
			b.Logger.Warn("state.start_run_failed", "error", err)
		}
	}

	exec, err := pipeline.NewExecutor(b.Stages())
	if err != nil {
		return nil, err
	}
	exec.Observer = chainObserver{printer: b.Printer, logger: b.Logger}

	res, err := exec.Run(ctx)
	if err != nil {
		if b.Recorder != nil && res != nil {
			_ = b.Recorder.FinishFailed("cancelled", err, warningStrings(res))
		}
		return res, err
	}

	if b.Recorder != nil {
		if res.Succeeded() {
			if rerr := b.Recorder.FinishSucceeded(warningStrings(res)); rerr != nil {
				b.Logger.Warn("state.finish_run_failed", "error", rerr)
			}
		} else {
			if rerr := b.Recorder.FinishFailed(res.FailedStage, res.Err, warningStrings(res)); rerr != nil {
				b.Logger.Warn("state.finish_run_failed", "error", rerr)
			}
		}
	}
	return res, nil
}

func warningStrings(res *pipeline.Result) []string {
	if res == nil || len(res.Warnings) == 0 {
		return nil
	}
	out := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		out[i] = fmt.Sprintf("%s: %v", w.Stage, w.Err)
	}
	return out
}

// chainObserver fans stage lifecycle events out to the console printer and
// the structured log.
type chainObserver struct {
	printer *report.Printer
	logger  *slog.Logger
}

func (o chainObserver) StageStarted(index, total int, stage pipeline.Stage) {
	o.printer.StageStarted(index, total, stage)
	o.logger.Info("stage.started", "stage", stage.Name, "index", index+1, "total", total)
}

func (o chainObserver) StageFinished(index, total int, stage pipeline.Stage, status pipeline.Status, err error) {
	o.printer.StageFinished(index, total, stage, status, err)
	if err != nil {
		o.logger.Info("stage.finished", "stage", stage.Name, "status", string(status), "error", err.Error())
		return
	}
	o.logger.Info("stage.finished", "stage", stage.Name, "status", string(status))
}
