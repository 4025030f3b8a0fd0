package pipeline

import (
	"context"
	"fmt"
)

// Observer receives stage lifecycle notifications. Observation must never
// influence execution; a nil Observer is valid.
type Observer interface {
	// StageStarted fires after the stage transitions to RUNNING.
	// index is 0-based; total is the chain length.
	StageStarted(index, total int, stage Stage)

	// StageFinished fires after the stage reaches a terminal status.
	// err is the stage error for FAILED and WARNED, nil otherwise.
	StageFinished(index, total int, stage Stage, status Status, err error)
}

// Executor runs a stage chain serially.
//
// Ordering is strict and non-reentrant: stage N never starts before stage
// N-1 reached a terminal status. Provisioning operations depend on the
// filesystem state left by the previous stage, so there is nothing to
// parallelize.
type Executor struct {
	Stages   []Stage
	Observer Observer

	state ChainState
}

// NewExecutor validates the chain and initializes all stages to PENDING.
func NewExecutor(stages []Stage) (*Executor, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("empty stage chain")
	}
	state := make(ChainState, len(stages))
	for _, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage with empty name")
		}
		if s.Run == nil {
			return nil, fmt.Errorf("stage %q has no run function", s.Name)
		}
		if _, dup := state[s.Name]; dup {
			return nil, fmt.Errorf("duplicate stage name %q", s.Name)
		}
		state[s.Name] = StagePending
	}
	return &Executor{Stages: stages, state: state}, nil
}

// StateSnapshot returns a copy of the current chain state.
func (e *Executor) StateSnapshot() ChainState {
	cp := make(ChainState, len(e.state))
	for k, v := range e.state {
		cp[k] = v
	}
	return cp
}

// Run executes the chain in order and returns the aggregated result.
//
// A fatal stage failure transitions the stage to FAILED, marks every later
// stage SKIPPED, and stops. An advisory failure transitions to WARNED and
// continues. Cancellation is honored between stages only: a stage that has
// started runs to its own completion or to its subprocess being killed.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	res := &Result{Order: make([]string, 0, len(e.Stages))}
	total := len(e.Stages)

	for i, stage := range e.Stages {
		if err := ctx.Err(); err != nil {
			e.skipFrom(i)
			res.State = e.StateSnapshot()
			return res, fmt.Errorf("bootstrap cancelled before %q: %w", stage.Name, err)
		}

		if err := Transition(e.state, stage.Name, StagePending, StageRunning); err != nil {
			return nil, err
		}
		if e.Observer != nil {
			e.Observer.StageStarted(i, total, stage)
		}

		runErr := stage.Run(ctx)
		res.Order = append(res.Order, stage.Name)

		switch {
		case runErr == nil:
			if err := Transition(e.state, stage.Name, StageRunning, StageCompleted); err != nil {
				return nil, err
			}
			if e.Observer != nil {
				e.Observer.StageFinished(i, total, stage, StageCompleted, nil)
			}

		case stage.Policy == PolicyAdvisory:
			if err := Transition(e.state, stage.Name, StageRunning, StageWarned); err != nil {
				return nil, err
			}
			res.Warnings = append(res.Warnings, Warning{Stage: stage.Name, Err: runErr})
			if e.Observer != nil {
				e.Observer.StageFinished(i, total, stage, StageWarned, runErr)
			}

		default:
			if err := Transition(e.state, stage.Name, StageRunning, StageFailed); err != nil {
				return nil, err
			}
			res.FailedStage = stage.Name
			res.Err = runErr
			if e.Observer != nil {
				e.Observer.StageFinished(i, total, stage, StageFailed, runErr)
			}
			e.skipFrom(i + 1)
			res.State = e.StateSnapshot()
			return res, nil
		}
	}

	res.State = e.StateSnapshot()
	return res, nil
}

// skipFrom marks every pending stage at or after index as SKIPPED.
func (e *Executor) skipFrom(index int) {
	for _, s := range e.Stages[min(index, len(e.Stages)):] {
		if e.state[s.Name] == StagePending {
			e.state[s.Name] = StageSkipped
		}
	}
}
