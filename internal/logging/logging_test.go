package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONRecords(t *testing.T) {
	root := t.TempDir()

	logger, cleanup, err := Setup(root, false)
	require.NoError(t, err)

	logger.Info("stage.started", "stage", "interpreter-check")
	logger.Debug("package.installed", "name", "fastapi") // below level, dropped
	require.NoError(t, cleanup())

	data, err := os.ReadFile(filepath.Join(root, ".envboot", "logs", "envboot.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2) // initialization record + stage record

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "stage.started", rec["msg"])
	assert.Equal(t, "interpreter-check", rec["stage"])

	// Timestamps are normalized to UTC.
	ts, _ := rec["time"].(string)
	assert.True(t, strings.HasSuffix(ts, "Z"), "expected UTC timestamp, got %q", ts)
}

func TestSetupVerboseEnablesDebug(t *testing.T) {
	root := t.TempDir()

	logger, cleanup, err := Setup(root, true)
	require.NoError(t, err)

	logger.Debug("package.installed", "name", "fastapi")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(filepath.Join(root, ".envboot", "logs", "envboot.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package.installed")
}

func TestSetupFailureReturnsDiscardLogger(t *testing.T) {
	root := t.TempDir()
	// Occupy the logs path with a file so MkdirAll fails.
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".envboot"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".envboot", "logs"), nil, 0o644))

	logger, cleanup, err := Setup(root, false)
	require.Error(t, err)
	require.NotNil(t, logger)

	logger.Info("still.safe") // must not panic
	assert.NoError(t, cleanup())
}
