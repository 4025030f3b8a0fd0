package state

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Recorder is the write-side convenience over Store used by the bootstrap:
// start a run, snapshot packages as they install, then mark the terminal
// status. Recording is best-effort from the pipeline's point of view; a
// recording failure never changes a stage outcome.
type Recorder struct {
	Store *Store

	runID string
	run   Run
}

// NewRecorder creates a Recorder bound to a fresh run ID.
func NewRecorder(store *Store) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("Store is required")
	}
	return &Recorder{Store: store, runID: uuid.NewString()}, nil
}

// RunID returns the recorder's run identifier.
func (r *Recorder) RunID() string { return r.runID }

// StartRun persists the initial running record.
func (r *Recorder) StartRun(envDir, manifest string) error {
	if r == nil || r.Store == nil {
		return errors.New("Store is required")
	}
	r.run = Run{
		RunID:     r.runID,
		StartTime: time.Now().UTC(),
		Status:    RunRunning,
		EnvDir:    envDir,
		Manifest:  manifest,
	}
	return r.Store.SaveRun(r.run)
}

// SetInterpreter records the resolved system interpreter path.
func (r *Recorder) SetInterpreter(path string) error {
	r.run.Interpreter = path
	return r.Store.SaveRun(r.run)
}

// RecordPackage persists one install snapshot.
func (r *Recorder) RecordPackage(snap PackageSnapshot) error {
	return r.Store.SavePackage(r.runID, snap)
}

// FinishSucceeded marks the run successful, carrying any advisory warnings.
func (r *Recorder) FinishSucceeded(warnings []string) error {
	r.run.Status = RunSucceeded
	r.run.Warnings = warnings
	return r.Store.SaveRun(r.run)
}

// FinishFailed marks the run failed at the named stage.
func (r *Recorder) FinishFailed(stage string, cause error, warnings []string) error {
	r.run.Status = RunFailed
	r.run.FailedStage = stage
	r.run.Warnings = warnings
	if cause != nil {
		r.run.Failure = cause.Error()
	}
	return r.Store.SaveRun(r.run)
}
