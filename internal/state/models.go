// Package state persists bootstrap run records and per-package install
// snapshots under <projectRoot>/.envboot/runs/<run-id>/.
//
// Snapshots exist for diagnostics only: there is no rollback and no
// transactional install, so after a partial failure the records are what
// tells an operator which packages made it in.
package state

import (
	"errors"
	"fmt"
	"time"
)

// RunStatus is the lifecycle status of a bootstrap run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is the persisted metadata for one bootstrap invocation.
type Run struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	Status    RunStatus `json:"status"`

	// EnvDir and Manifest record the inputs the run operated on.
	EnvDir   string `json:"env_dir"`
	Manifest string `json:"manifest"`

	// Interpreter is the resolved system interpreter, once known.
	Interpreter string `json:"interpreter,omitempty"`

	// FailedStage names the fatally failed stage for failed runs.
	FailedStage string `json:"failed_stage,omitempty"`

	// Failure is the diagnostic from the fatally failed stage.
	Failure string `json:"failure,omitempty"`

	// Warnings lists advisory-stage diagnostics (installer upgrade,
	// verification) that did not fail the run.
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks the invariants required before persisting.
func (r Run) Validate() error {
	if r.RunID == "" {
		return errors.New("run_id is required")
	}
	if r.StartTime.IsZero() {
		return errors.New("start_time is required")
	}
	switch r.Status {
	case RunRunning, RunSucceeded, RunFailed:
	default:
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.Status == RunFailed && r.FailedStage == "" {
		return errors.New("failed runs must name the failed stage")
	}
	return nil
}

// PackageSnapshot records the outcome of installing one manifest entry.
type PackageSnapshot struct {
	// Index is the entry's 0-based position in the manifest; it doubles as
	// the on-disk ordering key.
	Index int `json:"index"`

	Name string `json:"name"`

	// Spec is the raw requirement specifier handed to pip.
	Spec string `json:"spec"`

	Installed bool `json:"installed"`

	// ExitCode is pip's exit code for failed installs.
	ExitCode int `json:"exit_code,omitempty"`

	// Detail is a trailing excerpt of pip's stderr for failed installs.
	Detail string `json:"detail,omitempty"`
}

// Validate checks the invariants required before persisting.
func (p PackageSnapshot) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Spec == "" {
		return errors.New("spec is required")
	}
	if p.Index < 0 {
		return errors.New("index must be >= 0")
	}
	if p.Installed && p.ExitCode != 0 {
		return errors.New("installed snapshots must have exit_code 0")
	}
	return nil
}
