package events

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/CJFEdu/AutoGrader/internal/results"
)

// TerminalSink prints grading progress to a writer with pass/fail coloring.
type TerminalSink struct {
	w io.Writer

	pass *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewTerminalSink returns a sink writing to w, usually os.Stdout.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{
		w:    w,
		pass: color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
}

func (t *TerminalSink) StartRun(assignment string, students int) {
	fmt.Fprintf(t.w, "== Grading %s: %d students ==\n", assignment, students)
}

func (t *TerminalSink) StartStudent(name string) {
	fmt.Fprintf(t.w, "-- %s --\n", name)
}

func (t *TerminalSink) SkipStudent(name, reason string) {
	t.dim.Fprintf(t.w, "-- %s skipped: %s --\n", name, reason)
}

func (t *TerminalSink) StartTest(student, test string) {
	fmt.Fprintf(t.w, "   %s: %s...\n", student, test)
}

func (t *TerminalSink) FinishTest(student, test string, passed bool) {
	if passed {
		fmt.Fprintf(t.w, "   %s: %s %s\n", student, test, t.pass.Sprint("PASS"))
	} else {
		fmt.Fprintf(t.w, "   %s: %s %s\n", student, test, t.fail.Sprint("FAIL"))
	}
}

func (t *TerminalSink) FinishStudent(st *results.Student) {
	if !st.Submitted() {
		t.dim.Fprintf(t.w, "-- %s: not submitted --\n", st.FullName())
		return
	}
	passed := st.PassedCount()
	failed := len(st.Tests) - passed
	fmt.Fprintf(t.w, "-- %s (%s): %s, %s --\n",
		st.FullName(), st.Language,
		t.pass.Sprintf("%d passed", passed),
		t.fail.Sprintf("%d failed", failed))
}

func (t *TerminalSink) FinishRun(elapsed time.Duration) {
	fmt.Fprintf(t.w, "== Finished in %s ==\n", elapsed.Round(time.Millisecond))
}
