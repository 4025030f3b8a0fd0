package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stage(name string, policy Policy, run func(ctx context.Context) error) Stage {
	return Stage{Name: name, Title: name, Policy: policy, Run: run}
}

func ok(context.Context) error   { return nil }
func boom(context.Context) error { return errors.New("boom") }

func TestRunAllStagesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Stage {
		return stage(name, PolicyFatal, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	exec, err := NewExecutor([]Stage{mk("one"), mk("two"), mk("three")})
	require.NoError(t, err)

	res, err := exec.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Succeeded())
	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.Equal(t, []string{"one", "two", "three"}, res.Order)
	for _, name := range order {
		assert.Equal(t, StageCompleted, res.State[name])
	}
}

func TestFatalFailureHaltsAndSkipsRemainder(t *testing.T) {
	ran := map[string]bool{}
	mk := func(name string, policy Policy, fail bool) Stage {
		return stage(name, policy, func(context.Context) error {
			ran[name] = true
			if fail {
				return fmt.Errorf("%s failed", name)
			}
			return nil
		})
	}

	exec, err := NewExecutor([]Stage{
		mk("create", PolicyFatal, false),
		mk("install", PolicyFatal, true),
		mk("verify", PolicyAdvisory, false),
		mk("report", PolicyAdvisory, false),
	})
	require.NoError(t, err)

	res, err := exec.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Succeeded())
	assert.Equal(t, "install", res.FailedStage)
	assert.EqualError(t, res.Err, "install failed")

	assert.True(t, ran["create"])
	assert.True(t, ran["install"])
	assert.False(t, ran["verify"], "stages after a fatal failure must not run")
	assert.False(t, ran["report"])

	assert.Equal(t, StageCompleted, res.State["create"])
	assert.Equal(t, StageFailed, res.State["install"])
	assert.Equal(t, StageSkipped, res.State["verify"])
	assert.Equal(t, StageSkipped, res.State["report"])
}

func TestAdvisoryFailureContinuesAsWarning(t *testing.T) {
	var order []string
	mk := func(name string, policy Policy, fail bool) Stage {
		return stage(name, policy, func(context.Context) error {
			order = append(order, name)
			if fail {
				return fmt.Errorf("%s degraded", name)
			}
			return nil
		})
	}

	exec, err := NewExecutor([]Stage{
		mk("upgrade", PolicyAdvisory, true),
		mk("install", PolicyFatal, false),
		mk("verify", PolicyAdvisory, true),
	})
	require.NoError(t, err)

	res, err := exec.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Succeeded(), "advisory failures must not fail the run")
	assert.Equal(t, []string{"upgrade", "install", "verify"}, order)
	assert.Equal(t, StageWarned, res.State["upgrade"])
	assert.Equal(t, StageWarned, res.State["verify"])

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "upgrade", res.Warnings[0].Stage)
	assert.Equal(t, "verify", res.Warnings[1].Stage)
}

func TestCancellationStopsBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := stage("first", PolicyFatal, func(context.Context) error {
		cancel() // cancel while the first stage is still running
		return nil
	})
	second := stage("second", PolicyFatal, func(context.Context) error {
		t.Fatal("second stage must not start after cancellation")
		return nil
	})

	exec, err := NewExecutor([]Stage{first, second})
	require.NoError(t, err)

	res, err := exec.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The in-flight stage ran to completion; the next never started.
	assert.Equal(t, StageCompleted, res.State["first"])
	assert.Equal(t, StageSkipped, res.State["second"])
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) StageStarted(index, total int, s Stage) {
	o.events = append(o.events, fmt.Sprintf("start %d/%d %s", index+1, total, s.Name))
}

func (o *recordingObserver) StageFinished(index, total int, s Stage, status Status, err error) {
	o.events = append(o.events, fmt.Sprintf("finish %d/%d %s %s", index+1, total, s.Name, status))
}

func TestObserverSeesLifecycle(t *testing.T) {
	exec, err := NewExecutor([]Stage{
		stage("a", PolicyFatal, ok),
		stage("b", PolicyAdvisory, boom),
		stage("c", PolicyFatal, boom),
		stage("d", PolicyFatal, ok),
	})
	require.NoError(t, err)

	obs := &recordingObserver{}
	exec.Observer = obs

	_, err = exec.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start 1/4 a", "finish 1/4 a COMPLETED",
		"start 2/4 b", "finish 2/4 b WARNED",
		"start 3/4 c", "finish 3/4 c FAILED",
	}, obs.events, "skipped stages emit no observer events")
}

func TestNewExecutorValidation(t *testing.T) {
	cases := []struct {
		name   string
		stages []Stage
	}{
		{"empty chain", nil},
		{"empty name", []Stage{stage("", PolicyFatal, ok)}},
		{"nil run", []Stage{{Name: "x", Policy: PolicyFatal}}},
		{"duplicate name", []Stage{stage("x", PolicyFatal, ok), stage("x", PolicyFatal, ok)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExecutor(tc.stages)
			assert.Error(t, err)
		})
	}
}

func TestTransitionRules(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to running", StagePending, StageRunning, true},
		{"pending to skipped", StagePending, StageSkipped, true},
		{"pending to completed", StagePending, StageCompleted, false},
		{"running to completed", StageRunning, StageCompleted, true},
		{"running to warned", StageRunning, StageWarned, true},
		{"running to failed", StageRunning, StageFailed, true},
		{"running to skipped", StageRunning, StageSkipped, false},
		{"completed is terminal", StageCompleted, StageRunning, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := ChainState{"s": tc.from}
			err := Transition(st, "s", tc.from, tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, st["s"])
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.from, st["s"], "failed transitions must not mutate state")
			}
		})
	}
}

func TestTransitionUnknownAndMismatched(t *testing.T) {
	st := ChainState{"s": StagePending}

	require.Error(t, Transition(st, "missing", StagePending, StageRunning))
	require.Error(t, Transition(st, "s", StageRunning, StageCompleted))
}
