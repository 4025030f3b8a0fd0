//go:build unix

package execx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner(t.TempDir())

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
}

func TestRunReportsExitCode(t *testing.T) {
	r := NewRunner(t.TempDir())

	res, err := r.Run(context.Background(), "sh", "-c", "exit 7")
	require.NoError(t, err, "a non-zero exit is a result, not an error")
	assert.Equal(t, 7, res.ExitCode)
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner(t.TempDir())

	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-4915")
	require.Error(t, err)
}

func TestRunEmptyName(t *testing.T) {
	r := NewRunner(t.TempDir())

	_, err := r.Run(context.Background(), "")
	require.Error(t, err)
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir)

	res, err := r.Run(context.Background(), "sh", "-c", "pwd")
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), dir)
}

func TestRunExtraEnvironment(t *testing.T) {
	r := NewRunner(t.TempDir())
	r.Extra = []string{"BOOT_PROBE=probe-value"}

	res, err := r.Run(context.Background(), "sh", "-c", "printf %s \"$BOOT_PROBE\"")
	require.NoError(t, err)
	assert.Equal(t, "probe-value", string(res.Stdout))
}

func TestRunCancellationKillsProcess(t *testing.T) {
	r := NewRunner(t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sh", "-c", "sleep 30")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second, "cancellation must not wait for the child")
}

func TestStderrTail(t *testing.T) {
	res := &Result{Stderr: []byte("  first line\nERROR: no matching distribution\n")}

	assert.Equal(t, "first line\nERROR: no matching distribution", res.StderrTail(1000))
	assert.Equal(t, "distribution", res.StderrTail(12))
	assert.Equal(t, "", (&Result{}).StderrTail(10))
	assert.Equal(t, "", (*Result)(nil).StderrTail(10))
}
