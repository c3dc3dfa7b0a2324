package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths lays out a grading run's output tree under a single root.
type Paths struct {
	Root string
}

// ResultsDir holds one text file of grading messages per student.
func (p Paths) ResultsDir() string { return filepath.Join(p.Root, "results") }

// FullOutputDir holds the raw full-test output per student.
func (p Paths) FullOutputDir() string { return filepath.Join(p.Root, "full_output") }

// NotesDir holds the editable per-student notes files.
func (p Paths) NotesDir() string { return filepath.Join(p.Root, "notes") }

// CSVPath is the summary sheet.
func (p Paths) CSVPath() string { return filepath.Join(p.Root, "results.csv") }

// JSONPath is the machine-readable snapshot.
func (p Paths) JSONPath() string { return filepath.Join(p.Root, "results.json") }

// HTMLPath is the rendered report page.
func (p Paths) HTMLPath() string { return filepath.Join(p.Root, "results.html") }

// TrackerPath is the run ledger.
func (p Paths) TrackerPath() string { return filepath.Join(p.Root, "time_tracker.txt") }

// EnsureDirs creates the output tree.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.ResultsDir(), p.FullOutputDir(), p.NotesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// Clean empties the results and full-output directories, preserving any
// file whose username appears in keep. Notes are never cleaned.
func (p Paths) Clean(keep []string) error {
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}
	for _, dir := range []string{p.ResultsDir(), p.FullOutputDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, entry := range entries {
			username := strings.TrimSuffix(entry.Name(), ".txt")
			if kept[username] {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove stale result: %w", err)
			}
		}
	}
	return nil
}

func studentFileName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(name, ",", ""), " ", "_")) + ".txt"
}

// SaveResult writes (replacing) a student's grading message file.
func (p Paths) SaveResult(name, text string) error {
	path := filepath.Join(p.ResultsDir(), studentFileName(name))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to save results for %s: %w", name, err)
	}
	return nil
}

// AppendResult appends to a student's grading message file.
func (p Paths) AppendResult(name, text string) error {
	path := filepath.Join(p.ResultsDir(), studentFileName(name))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open results for %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to append results for %s: %w", name, err)
	}
	return nil
}

// SaveFullOutput writes a student's raw full-test output.
func (p Paths) SaveFullOutput(name, text string) error {
	path := filepath.Join(p.FullOutputDir(), studentFileName(name))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to save full output for %s: %w", name, err)
	}
	return nil
}

// EnsureNotes creates an empty notes file for the student when absent.
func (p Paths) EnsureNotes(name string) error {
	path := filepath.Join(p.NotesDir(), studentFileName(name))
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("failed to create notes for %s: %w", name, err)
	}
	return nil
}

// TrackRun appends a start/finish pair to the run ledger.
func (p Paths) TrackRun(label string, started, finished time.Time) error {
	f, err := os.OpenFile(p.TrackerPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer f.Close()

	dur := finished.Sub(started).Round(time.Second)
	_, err = fmt.Fprintf(f, "\n=== %s Started: %s ===\n=== %s Completed: %s ===\n=== Total Duration: %s ===\n",
		label, started.Format("2006-01-02 15:04:05"),
		label, finished.Format("2006-01-02 15:04:05"),
		dur)
	if err != nil {
		return fmt.Errorf("failed to append run ledger: %w", err)
	}
	return nil
}
