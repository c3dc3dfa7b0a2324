package fileprep

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileState classifies one staged test file by its number of active blocks.
type FileState int

const (
	// StateStaged means every test block is still disabled; the file is
	// not yet runnable and awaits operator activation.
	StateStaged FileState = iota
	// StateRunnable means exactly one test block is active.
	StateRunnable
	// StateInvalid means more than one test block is active.
	StateInvalid
)

// FileReport is the validation outcome for one staged file.
type FileReport struct {
	Name         string
	State        FileState
	ActiveBlocks int
}

// StagingReport is the outcome of validating a staging directory.
type StagingReport struct {
	Files []FileReport
	Want  int // expected file count, K tests × L languages
}

// Count returns the number of staged files found.
func (r *StagingReport) Count() int { return len(r.Files) }

// Invalid returns the reports for files with more than one active block.
func (r *StagingReport) Invalid() []FileReport {
	var bad []FileReport
	for _, f := range r.Files {
		if f.State == StateInvalid {
			bad = append(bad, f)
		}
	}
	return bad
}

// Runnable returns the number of files with exactly one active block.
func (r *StagingReport) Runnable() int {
	n := 0
	for _, f := range r.Files {
		if f.State == StateRunnable {
			n++
		}
	}
	return n
}

// Err folds the report into a single error: a file count that differs from
// the expected K×L indicates a partial preparation run, and any file with
// more than one active block is rejected outright.
func (r *StagingReport) Err() error {
	if r.Count() != r.Want {
		return fmt.Errorf("staging directory holds %d files, expected %d; re-run preparation", r.Count(), r.Want)
	}
	if bad := r.Invalid(); len(bad) > 0 {
		names := make([]string, 0, len(bad))
		for _, f := range bad {
			names = append(names, fmt.Sprintf("%s (%d active)", f.Name, f.ActiveBlocks))
		}
		return fmt.Errorf("staged files with more than one active test block: %s", strings.Join(names, ", "))
	}
	return nil
}

// ValidateStaging inspects every staged test file in dir. want is the
// expected file count (test names × languages).
func ValidateStaging(dir string, want int) (*StagingReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	report := &StagingReport{Want: want}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read staged file %s: %w", entry.Name(), err)
		}
		tmpl, err := ParseTemplate(string(data))
		if err != nil {
			return nil, fmt.Errorf("staged file %s: %w", entry.Name(), err)
		}

		active := 0
		for _, seg := range tmpl.segments {
			if seg.kind == segmentBlock && activeLines(seg.lines) > 0 {
				active++
			}
		}

		state := StateStaged
		switch {
		case active == 1:
			state = StateRunnable
		case active > 1:
			state = StateInvalid
		}
		report.Files = append(report.Files, FileReport{
			Name:         entry.Name(),
			State:        state,
			ActiveBlocks: active,
		})
	}
	sort.Slice(report.Files, func(a, b int) bool { return report.Files[a].Name < report.Files[b].Name })
	return report, nil
}
