// Package events defines the progress sink a grading run reports into.
// Implementations receive every lifecycle event; the shipped implementation
// prints to the terminal.
package events

import (
	"time"

	"github.com/CJFEdu/AutoGrader/internal/results"
)

// ProgressSink receives grading lifecycle events in order. Implementations
// must not block; every event completes synchronously.
type ProgressSink interface {
	StartRun(assignment string, students int)
	StartStudent(name string)
	SkipStudent(name, reason string)
	StartTest(student, test string)
	FinishTest(student, test string, passed bool)
	FinishStudent(st *results.Student)
	FinishRun(elapsed time.Duration)
}

// Discard is a ProgressSink that drops every event; useful in tests.
type Discard struct{}

func (Discard) StartRun(string, int)            {}
func (Discard) StartStudent(string)             {}
func (Discard) SkipStudent(string, string)      {}
func (Discard) StartTest(string, string)        {}
func (Discard) FinishTest(string, string, bool) {}
func (Discard) FinishStudent(*results.Student)  {}
func (Discard) FinishRun(time.Duration)         {}
