// Package results holds the grading result records and their on-disk
// persistence: per-student text files, the CSV summary, the JSON snapshot
// the renderer consumes, and the zipped archives.
package results

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord marks a result record missing its submission
// identifier; such snapshots are rejected rather than partially rendered.
var ErrMalformedRecord = errors.New("malformed result record")

// TestResult is one test's outcome for one student. Immutable once graded.
type TestResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Output string `json:"output"`
}

// Student is one submission's full grading record. A student with no Tests
// and no Language did not submit.
type Student struct {
	FirstName        string       `json:"first_name"`
	LastName         string       `json:"last_name"`
	Username         string       `json:"username"`
	Language         string       `json:"language"`
	Tests            []TestResult `json:"tests"`
	FullOutput       string       `json:"full_output"`
	FullOutputPassed bool         `json:"full_output_passed"`
	Notes            string       `json:"notes,omitempty"`
}

// FullName returns "First Last", tolerating single-part names.
func (s *Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	return s.FirstName + " " + s.LastName
}

// Submitted reports whether any graded tests exist for the student.
func (s *Student) Submitted() bool { return len(s.Tests) > 0 }

// PassedCount returns how many of the student's tests passed.
func (s *Student) PassedCount() int {
	n := 0
	for _, t := range s.Tests {
		if t.Passed {
			n++
		}
	}
	return n
}

// Results is a completed grading run: the ordered test names plus every
// student's record sorted by username.
type Results struct {
	TestNames []string   `json:"test_names"`
	Students  []*Student `json:"students"`
}

// Validate rejects snapshots holding malformed records.
func (r *Results) Validate() error {
	for i, s := range r.Students {
		if s == nil || s.Username == "" && s.LastName == "" {
			return fmt.Errorf("student %d has no submission identifier: %w", i, ErrMalformedRecord)
		}
	}
	return nil
}
