// Package workspace maps the on-disk layout of a grading workspace: an
// input tree the operator populates and an output tree the tool writes.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is rooted at the operator's working directory.
type Workspace struct {
	Root       string
	Assignment string
}

// New returns a Workspace for the given root and assignment name.
func New(root, assignment string) Workspace {
	return Workspace{Root: root, Assignment: assignment}
}

// InputDir holds everything the operator supplies.
func (w Workspace) InputDir() string { return filepath.Join(w.Root, "input") }

// OutputDir holds everything the tool produces.
func (w Workspace) OutputDir() string { return filepath.Join(w.Root, "output") }

// RosterCSV is the assignment roster.
func (w Workspace) RosterCSV() string {
	return filepath.Join(w.InputDir(), w.Assignment+".csv")
}

// TemplateDir holds the template test files, provided files, and the
// expected-output file.
func (w Workspace) TemplateDir() string {
	return filepath.Join(w.InputDir(), w.Assignment)
}

// StagingDir holds the generated per-test files awaiting activation.
func (w Workspace) StagingDir() string {
	return filepath.Join(w.TemplateDir(), "staging")
}

// SubmissionsZip is the archive of all student submissions.
func (w Workspace) SubmissionsZip() string {
	return filepath.Join(w.InputDir(), "submissions.zip")
}

// SubmissionsDir is where submissions are extracted.
func (w Workspace) SubmissionsDir() string {
	return filepath.Join(w.OutputDir(), "submissions")
}

// ExpectedOutputPath is the operator-supplied expected output file.
func (w Workspace) ExpectedOutputPath(fileName string) string {
	return filepath.Join(w.TemplateDir(), fileName)
}

// EnsureOutput creates the output directory.
func (w Workspace) EnsureOutput() error {
	if err := os.MkdirAll(w.OutputDir(), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
