// Package pipeline executes an ordered chain of provisioning stages.
//
// The chain is the single, platform-agnostic definition of the bootstrap
// sequence: each stage carries its own failure policy, and the executor
// enforces strict ordering with no parallelism. Per-OS behavior lives behind
// the stage run functions, never in the chain itself.
package pipeline

import (
	"context"
	"fmt"
)

// Policy classifies how a stage failure affects the run.
type Policy int

const (
	// PolicyFatal halts the pipeline; remaining stages are skipped.
	PolicyFatal Policy = iota

	// PolicyAdvisory downgrades the failure to a warning; the pipeline
	// continues and the run can still succeed.
	PolicyAdvisory
)

func (p Policy) String() string {
	switch p {
	case PolicyFatal:
		return "fatal"
	case PolicyAdvisory:
		return "advisory"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Stage is one discrete, ordered step with its own failure policy.
type Stage struct {
	// Name is the stable stage identifier (e.g. "interpreter-check").
	Name string

	// Title is the human-readable progress line for this stage.
	Title string

	// Policy decides whether a failure is fatal or advisory.
	Policy Policy

	// Run performs the stage. A nil error means the stage completed.
	Run func(ctx context.Context) error
}

// Status is the lifecycle state of a stage within a run.
type Status string

const (
	StagePending   Status = "PENDING"
	StageRunning   Status = "RUNNING"
	StageCompleted Status = "COMPLETED"
	StageWarned    Status = "WARNED"
	StageFailed    Status = "FAILED"
	StageSkipped   Status = "SKIPPED"
)

// IsTerminal reports whether the status is final for a run.
func IsTerminal(s Status) bool {
	switch s {
	case StageCompleted, StageWarned, StageFailed, StageSkipped:
		return true
	default:
		return false
	}
}

// ChainState maps stage name to its current status.
type ChainState map[string]Status

// Transition performs a validated state change for a single stage.
//
// The caller supplies the expected prior status so ordering bugs surface as
// errors instead of silent overwrites.
func Transition(state ChainState, stage string, from, to Status) error {
	cur, ok := state[stage]
	if !ok {
		return fmt.Errorf("unknown stage in state: %q", stage)
	}
	if cur != from {
		return fmt.Errorf("invalid transition for %q: expected %s, got %s", stage, from, cur)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition for %q: %s -> %s", stage, from, to)
	}
	state[stage] = to
	return nil
}

func isAllowedTransition(from, to Status) bool {
	switch from {
	case StagePending:
		return to == StageRunning || to == StageSkipped
	case StageRunning:
		return to == StageCompleted || to == StageWarned || to == StageFailed
	default:
		return false
	}
}
