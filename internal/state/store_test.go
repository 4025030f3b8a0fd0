package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(id string) Run {
	return Run{
		RunID:     id,
		StartTime: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Status:    RunRunning,
		EnvDir:    "/project/.venv",
		Manifest:  "/project/requirements.txt",
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	run := testRun("run-a")
	run.Interpreter = "/usr/bin/python3"
	require.NoError(t, store.SaveRun(run))

	got, err := store.LoadRun("run-a")
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestSaveRunRejectsInvalid(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	bad := testRun("run-a")
	bad.Status = RunFailed // failed without a failed stage
	require.Error(t, store.SaveRun(bad))

	bad = testRun("")
	require.Error(t, store.SaveRun(bad))
}

func TestSaveRunOverwritesAtomically(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(base)
	require.NoError(t, err)

	run := testRun("run-a")
	require.NoError(t, store.SaveRun(run))

	run.Status = RunSucceeded
	run.Warnings = []string{"installer upgrade failed"}
	require.NoError(t, store.SaveRun(run))

	got, err := store.LoadRun("run-a")
	require.NoError(t, err)
	assert.Equal(t, RunSucceeded, got.Status)
	assert.Equal(t, []string{"installer upgrade failed"}, got.Warnings)

	// No leftover temp files from the atomic write.
	entries, err := os.ReadDir(filepath.Join(base, ".envboot", "runs", "run-a"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp.")
	}
}

func TestLoadRunRejectsUnknownFields(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(base)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(testRun("run-a")))

	path := filepath.Join(base, ".envboot", "runs", "run-a", "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"run_id":"run-a","bogus":1}`), 0o644))

	_, err = store.LoadRun("run-a")
	require.Error(t, err)
}

func TestListRunIDs(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ids, err := store.ListRunIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.SaveRun(testRun("bbb")))
	require.NoError(t, store.SaveRun(testRun("aaa")))

	ids, err = store.ListRunIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "bbb"}, ids)
}

func TestPackageSnapshotsKeepManifestOrder(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// Written out of order; the zero-padded index restores manifest order.
	snaps := []PackageSnapshot{
		{Index: 2, Name: "scipy", Spec: "scipy==1.11.3", Installed: true},
		{Index: 0, Name: "fastapi", Spec: "fastapi==0.104.1", Installed: true},
		{Index: 1, Name: "boto3", Spec: "boto3==1.29.0", Installed: false, ExitCode: 1, Detail: "ERROR: no matching distribution"},
	}
	for _, s := range snaps {
		require.NoError(t, store.SavePackage("run-a", s))
	}

	got, err := store.LoadPackages("run-a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "fastapi", got[0].Name)
	assert.Equal(t, "boto3", got[1].Name)
	assert.Equal(t, "scipy", got[2].Name)
	assert.False(t, got[1].Installed)
	assert.Equal(t, 1, got[1].ExitCode)
}

func TestLoadPackagesMissingRun(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.LoadPackages("never-ran")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPackageSnapshotValidate(t *testing.T) {
	cases := []struct {
		name string
		snap PackageSnapshot
		ok   bool
	}{
		{"valid installed", PackageSnapshot{Index: 0, Name: "fastapi", Spec: "fastapi==1.0", Installed: true}, true},
		{"valid failed", PackageSnapshot{Index: 1, Name: "boto3", Spec: "boto3", ExitCode: 1}, true},
		{"missing name", PackageSnapshot{Index: 0, Spec: "x"}, false},
		{"missing spec", PackageSnapshot{Index: 0, Name: "x"}, false},
		{"negative index", PackageSnapshot{Index: -1, Name: "x", Spec: "x"}, false},
		{"installed with exit code", PackageSnapshot{Index: 0, Name: "x", Spec: "x", Installed: true, ExitCode: 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.snap.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
