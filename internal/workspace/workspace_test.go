package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CJFEdu/AutoGrader/internal/workspace"
)

func TestLayout(t *testing.T) {
	ws := workspace.New("/work", "Assignment4")

	require.Equal(t, filepath.Join("/work", "input"), ws.InputDir())
	require.Equal(t, filepath.Join("/work", "output"), ws.OutputDir())
	require.Equal(t, filepath.Join("/work", "input", "Assignment4.csv"), ws.RosterCSV())
	require.Equal(t, filepath.Join("/work", "input", "Assignment4"), ws.TemplateDir())
	require.Equal(t, filepath.Join("/work", "input", "Assignment4", "staging"), ws.StagingDir())
	require.Equal(t, filepath.Join("/work", "input", "submissions.zip"), ws.SubmissionsZip())
	require.Equal(t, filepath.Join("/work", "output", "submissions"), ws.SubmissionsDir())
	require.Equal(t, filepath.Join("/work", "input", "Assignment4", "ExpectedOutput.txt"),
		ws.ExpectedOutputPath("ExpectedOutput.txt"))
}

func TestEnsureOutput(t *testing.T) {
	ws := workspace.New(t.TempDir(), "Assignment4")
	require.NoError(t, ws.EnsureOutput())

	info, err := os.Stat(ws.OutputDir())
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
