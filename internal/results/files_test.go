package results_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CJFEdu/AutoGrader/internal/results"
)

func TestPathsLayout(t *testing.T) {
	p := results.Paths{Root: "/tmp/out"}
	require.Equal(t, filepath.Join("/tmp/out", "results"), p.ResultsDir())
	require.Equal(t, filepath.Join("/tmp/out", "full_output"), p.FullOutputDir())
	require.Equal(t, filepath.Join("/tmp/out", "notes"), p.NotesDir())
	require.Equal(t, filepath.Join("/tmp/out", "results.csv"), p.CSVPath())
	require.Equal(t, filepath.Join("/tmp/out", "results.json"), p.JSONPath())
	require.Equal(t, filepath.Join("/tmp/out", "results.html"), p.HTMLPath())
	require.Equal(t, filepath.Join("/tmp/out", "time_tracker.txt"), p.TrackerPath())
}

func TestSaveAndAppendResult(t *testing.T) {
	p := results.Paths{Root: t.TempDir()}
	require.NoError(t, p.EnsureDirs())

	require.NoError(t, p.SaveResult("smithj", "Test 1: PASSED\n"))
	require.NoError(t, p.AppendResult("smithj", "Test 2: FAILED\n"))

	data, err := os.ReadFile(filepath.Join(p.ResultsDir(), "smithj.txt"))
	require.NoError(t, err)
	require.Equal(t, "Test 1: PASSED\nTest 2: FAILED\n", string(data))
}

func TestStudentFileNameNormalized(t *testing.T) {
	p := results.Paths{Root: t.TempDir()}
	require.NoError(t, p.EnsureDirs())

	// Full names with commas and spaces collapse to one flat file name.
	require.NoError(t, p.SaveResult("Smith, John", "x"))
	_, err := os.Stat(filepath.Join(p.ResultsDir(), "smith_john.txt"))
	require.NoError(t, err)
}

func TestEnsureNotesPreservesExisting(t *testing.T) {
	p := results.Paths{Root: t.TempDir()}
	require.NoError(t, p.EnsureDirs())

	require.NoError(t, p.EnsureNotes("smithj"))
	notesPath := filepath.Join(p.NotesDir(), "smithj.txt")
	require.NoError(t, os.WriteFile(notesPath, []byte("late submission -2\n"), 0644))

	require.NoError(t, p.EnsureNotes("smithj"))
	data, err := os.ReadFile(notesPath)
	require.NoError(t, err)
	require.Equal(t, "late submission -2\n", string(data))
}

func TestCleanKeepsListedStudents(t *testing.T) {
	p := results.Paths{Root: t.TempDir()}
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, p.SaveResult("keepme", "a"))
	require.NoError(t, p.SaveResult("dropme", "b"))
	require.NoError(t, p.SaveFullOutput("dropme", "c"))
	require.NoError(t, p.EnsureNotes("dropme"))

	require.NoError(t, p.Clean([]string{"keepme"}))

	_, err := os.Stat(filepath.Join(p.ResultsDir(), "keepme.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(p.ResultsDir(), "dropme.txt"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(p.FullOutputDir(), "dropme.txt"))
	require.True(t, os.IsNotExist(err))

	// Notes survive cleaning.
	_, err = os.Stat(filepath.Join(p.NotesDir(), "dropme.txt"))
	require.NoError(t, err)
}

func TestTrackRunAppends(t *testing.T) {
	p := results.Paths{Root: t.TempDir()}
	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	finished := started.Add(95 * time.Second)

	require.NoError(t, p.TrackRun("Correctness Check", started, finished))
	require.NoError(t, p.TrackRun("Time Check", finished, finished.Add(time.Minute)))

	data, err := os.ReadFile(p.TrackerPath())
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "=== Correctness Check Started: 2026-03-04 10:00:00 ===")
	require.Contains(t, text, "=== Correctness Check Completed: 2026-03-04 10:01:35 ===")
	require.Contains(t, text, "=== Total Duration: 1m35s ===")
	require.Contains(t, text, "=== Time Check Started: 2026-03-04 10:01:35 ===")
}
