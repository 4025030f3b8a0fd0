// Package cli wires flags, configuration, logging, and state recording into
// a bootstrap run.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"envboot/internal/bootstrap"
	"envboot/internal/config"
	"envboot/internal/logging"
	"envboot/internal/report"
	"envboot/internal/state"
)

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	exitCode := ExitSuccess
	cmd := newRootCmd(&exitCode)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == ExitSuccess {
			exitCode = ExitInvalidInvocation
		}
	}
	return exitCode
}

func newRootCmd(exitCode *int) *cobra.Command {
	var (
		projectDir string
		cfgFile    string
	)

	cmd := &cobra.Command{
		Use:   "envboot",
		Short: "Provision the backend's isolated Python environment",
		Long: `envboot provisions an isolated Python environment for the backend,
installs the pinned dependency manifest, verifies the load-bearing
libraries import, and prints the commands to launch the backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveProjectRoot(projectDir)
			if err != nil {
				*exitCode = ExitInvalidInvocation
				return err
			}

			cfg, err := config.Load(root, cfgFile, cmd.Flags())
			if err != nil {
				*exitCode = ExitConfigError
				return err
			}

			return run(cmd.Context(), cfg, exitCode)
		},
	}

	cmd.Flags().StringVar(&projectDir, "project-dir", "", "project root (default: working directory)")
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: envboot.yaml in the project root)")
	cmd.Flags().String("env-dir", config.DefaultEnvDir, "isolated environment directory")
	cmd.Flags().String("manifest", config.DefaultManifest, "dependency manifest file")
	cmd.Flags().String("python", "", "system interpreter to prefer (default: python3, python, py)")
	cmd.Flags().String("min-python-version", config.DefaultMinPythonVersion, "minimum interpreter version")
	cmd.Flags().StringSlice("verify-modules", config.DefaultVerifyModules(), "modules probed after install")
	cmd.Flags().Bool("skip-verify", false, "skip the import verification stage")
	cmd.Flags().Bool("no-color", false, "disable colored output")
	cmd.Flags().Bool("verbose", false, "verbose logging and full pip output")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, exitCode *int) error {
	logger, cleanup, logErr := logging.Setup(cfg.ProjectRoot, cfg.Verbose)
	defer func() { _ = cleanup() }()

	printer := report.NewPrinter(os.Stdout, cfg.NoColor)
	if logErr != nil {
		printer.Warningf("file logging unavailable: %v", logErr)
	}

	var recorder *state.Recorder
	if store, err := state.NewStore(cfg.ProjectRoot); err == nil {
		if rec, err := state.NewRecorder(store); err == nil {
			recorder = rec
		}
	}

	b, err := bootstrap.New(cfg, logger, printer, recorder)
	if err != nil {
		*exitCode = ExitConfigError
		return err
	}

	printer.Headerf("Bootstrapping backend environment in %s", cfg.ProjectRoot)

	res, err := b.Run(ctx)
	if err != nil {
		*exitCode = ExitInternalError
		return err
	}
	if !res.Succeeded() {
		*exitCode = ExitBootstrapFailure
		return fmt.Errorf("bootstrap failed at stage %q: %v", res.FailedStage, res.Err)
	}

	*exitCode = ExitSuccess
	return nil
}

func resolveProjectRoot(flagValue string) (string, error) {
	dir := flagValue
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project dir is not a directory: %s", abs)
	}
	return abs, nil
}
