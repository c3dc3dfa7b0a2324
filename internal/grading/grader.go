// Package grading orchestrates a grading run: matching roster entries to
// submissions, arranging work directories, executing tests, and collecting
// result records.
package grading

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CJFEdu/AutoGrader/internal/config"
	"github.com/CJFEdu/AutoGrader/internal/events"
	"github.com/CJFEdu/AutoGrader/internal/fileprep"
	"github.com/CJFEdu/AutoGrader/internal/results"
	"github.com/CJFEdu/AutoGrader/internal/roster"
	"github.com/CJFEdu/AutoGrader/internal/runner"
	"github.com/CJFEdu/AutoGrader/internal/submissions"
)

// TimingTestName labels the single timing run in result records; timing
// snapshots carry it as their only test column.
const TimingTestName = "Time Test"

// Store is the submission intake surface the grader drives.
type Store interface {
	Match(pattern string) (zipName, username string, ok bool)
	Extract(zipName, username string) (string, error)
	DetectLanguages(extractionPath string) []config.Language
	Arrange(extractionPath string, lang config.Language, templateDir, stagingDir string, testNames []string) (*submissions.Arrangement, error)
	ArrangeTiming(extractionPath string, lang config.Language, templateDir string) (*submissions.Arrangement, error)
}

// Params wires a Grader together.
type Params struct {
	Cfg         *config.Config
	Subs        Store
	Runner      *runner.Runner
	Sink        events.ProgressSink
	Paths       results.Paths
	Log         *slog.Logger
	TemplateDir string
	StagingDir  string
	Timing      bool
}

// Grader runs the grading workflow over a roster.
type Grader struct {
	cfg         *config.Config
	subs        Store
	run         *runner.Runner
	sink        events.ProgressSink
	paths       results.Paths
	log         *slog.Logger
	templateDir string
	stagingDir  string
	timing      bool

	store *results.Store
}

// New returns a Grader ready to run.
func New(p Params) *Grader {
	sink := p.Sink
	if sink == nil {
		sink = events.Discard{}
	}
	return &Grader{
		cfg:         p.Cfg,
		subs:        p.Subs,
		run:         p.Runner,
		sink:        sink,
		paths:       p.Paths,
		log:         p.Log,
		templateDir: p.TemplateDir,
		stagingDir:  p.StagingDir,
		timing:      p.Timing,
	}
}

// Run grades every roster entry and returns the frozen result snapshot.
// Students are graded concurrently with a bounded worker count; everything
// within one student stays sequential.
func (g *Grader) Run(ctx context.Context, ros *roster.Roster) (*results.Results, error) {
	if err := g.paths.EnsureDirs(); err != nil {
		return nil, err
	}
	if err := g.paths.Clean(g.cfg.Roster.Ignore); err != nil {
		return nil, err
	}

	testNames := ros.TestNames
	if g.timing {
		testNames = []string{TimingTestName}
	}
	g.store = results.NewStore(testNames)
	started := time.Now()
	g.sink.StartRun(g.cfg.Assignment.Name, len(ros.Entries))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.cfg.Grading.Workers)
	for _, entry := range ros.Entries {
		entry := entry
		grp.Go(func() error {
			return g.gradeStudent(grpCtx, entry, testNames)
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	g.sink.FinishRun(time.Since(started))
	return g.store.Snapshot(), nil
}

func (g *Grader) ignored(username string) bool {
	for _, name := range g.cfg.Roster.Ignore {
		if name == username {
			return true
		}
	}
	return false
}

// gradeStudent grades one roster entry. Grading failures are recorded in
// the student's result record; only context cancellation is returned as an
// error.
func (g *Grader) gradeStudent(ctx context.Context, entry roster.Entry, testNames []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	st := &results.Student{FirstName: entry.FirstName, LastName: entry.LastName}

	zipName, username, ok := g.subs.Match(entry.SearchPattern)
	if !ok {
		g.sink.SkipStudent(entry.FullName(), "no submission found")
		g.store.Put(st)
		return nil
	}
	st.Username = username

	if err := g.paths.EnsureNotes(username); err != nil {
		g.log.Warn("failed to create notes file", "student", username, "error", err)
	}

	if g.ignored(username) {
		g.sink.SkipStudent(entry.FullName(), "on ignore list")
		g.store.Put(st)
		return nil
	}

	g.sink.StartStudent(entry.FullName())

	extraction, err := g.subs.Extract(zipName, username)
	if err != nil {
		g.saveAndPut(st, fmt.Sprintf("Failed to extract submission: %v\n", err))
		return nil
	}

	langs := g.subs.DetectLanguages(extraction)
	if len(langs) == 0 {
		g.saveAndPut(st, fmt.Sprintf("WARNING: No recognized file types found for %s\n", entry.FullName()))
		return nil
	}

	var msg strings.Builder
	if len(langs) > 1 {
		names := make([]string, len(langs))
		for i, l := range langs {
			names[i] = l.Name
		}
		fmt.Fprintf(&msg, "WARNING: Multiple file types found for %s: %s\n", entry.FullName(), strings.Join(names, ", "))
		fmt.Fprintf(&msg, "Trying each in preference order.\n\n")
	}

	// Try each detected language in preference order; the first language
	// where anything passes wins. A single detected language is recorded
	// even when every test fails.
	for _, lang := range langs {
		var graded bool
		if g.timing {
			graded = g.gradeTiming(ctx, st, lang, extraction, &msg)
		} else {
			graded = g.gradeCorrectness(ctx, st, lang, extraction, testNames, &msg)
		}
		if graded {
			st.Language = lang.Name
			break
		}
		if len(langs) == 1 {
			st.Language = lang.Name
		}
	}

	// A canceled run leaves no half-graded record behind.
	if err := ctx.Err(); err != nil {
		return err
	}

	g.saveAndPut(st, msg.String())
	g.sink.FinishStudent(st)
	return nil
}

func (g *Grader) saveAndPut(st *results.Student, message string) {
	name := st.Username
	if name == "" {
		name = st.FullName()
	}
	if err := g.paths.SaveResult(name, message); err != nil {
		g.log.Warn("failed to save result text", "student", name, "error", err)
	}
	g.store.Put(st)
}

// gradeCorrectness runs every numbered test plus the full test for one
// language. It reports true when at least one test passed, the signal to
// stop trying other languages.
func (g *Grader) gradeCorrectness(ctx context.Context, st *results.Student, lang config.Language, extraction string, testNames []string, msg *strings.Builder) bool {
	fmt.Fprintf(msg, "Grading %s submission for %s\n\n", strings.ToUpper(lang.Name), st.FullName())

	arr, err := g.subs.Arrange(extraction, lang, g.templateDir, g.stagingDir, testNames)
	if err != nil {
		fmt.Fprintf(msg, "%v\nCannot proceed with grading.\n", err)
		return false
	}

	st.Tests = st.Tests[:0]
	anyPassed := false
	for i, testName := range testNames {
		g.sink.StartTest(st.FullName(), testName)
		exec := g.run.Run(ctx, lang, arr.TestDirs[i], fileprep.TemplateBaseName)

		passed := false
		output := exec.Output
		if exec.Passed {
			expected, readErr := readExpected(g.templateDir, fmt.Sprintf("expectedoutput%d.txt", i+1))
			if readErr != nil {
				output = fmt.Sprintf("FAILED - %v", readErr)
			} else {
				var cmpMsg string
				passed, cmpMsg = runner.CompareOutput(exec.Output, expected)
				if passed {
					output = exec.Output
					fmt.Fprintf(msg, "Test %d: PASSED\n", i+1)
				} else {
					output = "FAILED - " + cmpMsg
					fmt.Fprintf(msg, "Test %d: FAILED\n", i+1)
				}
			}
		} else {
			fmt.Fprintf(msg, "Test %d: %s\n", i+1, firstLine(exec.Output))
		}

		st.Tests = append(st.Tests, results.TestResult{Name: testName, Passed: passed, Output: output})
		g.sink.FinishTest(st.FullName(), testName, passed)
		anyPassed = anyPassed || passed
	}

	// Full, unsplit run compared against the whole expected output.
	exec := g.run.Run(ctx, lang, arr.FullDir, fileprep.TemplateBaseName)
	st.FullOutput = exec.Output
	if exec.Passed {
		if expected, readErr := readExpected(g.templateDir, "expectedoutput.txt"); readErr == nil {
			st.FullOutputPassed, _ = runner.CompareOutput(exec.Output, expected)
		}
	}
	if err := g.paths.SaveFullOutput(st.Username, exec.Output); err != nil {
		g.log.Warn("failed to save full output", "student", st.Username, "error", err)
	}

	return anyPassed
}

// gradeTiming performs the single timing run: the timing template must
// finish within the timeout and every configured completion marker must
// appear in its output.
func (g *Grader) gradeTiming(ctx context.Context, st *results.Student, lang config.Language, extraction string, msg *strings.Builder) bool {
	fmt.Fprintf(msg, "Time check: %s submission for %s\n\n", strings.ToUpper(lang.Name), st.FullName())

	arr, err := g.subs.ArrangeTiming(extraction, lang, g.templateDir)
	if err != nil {
		fmt.Fprintf(msg, "%v\nCannot proceed with grading.\n", err)
		return false
	}

	started := time.Now()
	exec := g.run.Run(ctx, lang, arr.FullDir, fileprep.TimingBaseName)
	elapsed := time.Since(started)

	passed := exec.Passed
	for _, marker := range g.cfg.Tests.TimeCheckStrings {
		if !strings.Contains(exec.Output, marker) {
			passed = false
			break
		}
	}

	// The run is recorded as a regular test result so the CSV and report
	// treat the student as submitted.
	st.Tests = append(st.Tests[:0], results.TestResult{
		Name:   TimingTestName,
		Passed: passed,
		Output: exec.Output,
	})

	fmt.Fprintf(msg, "Runtime: %.2f seconds\n", elapsed.Seconds())
	verdict := "Time Test failed!"
	if passed {
		verdict = "Time Test passed!"
	}
	fmt.Fprintf(msg, "%s\n", verdict)
	st.Notes = verdict

	st.FullOutput = exec.Output
	st.FullOutputPassed = passed
	if err := g.paths.SaveFullOutput(st.Username, exec.Output); err != nil {
		g.log.Warn("failed to save full output", "student", st.Username, "error", err)
	}

	return passed
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func readExpected(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("expected output %s unavailable: %w", name, err)
	}
	return string(data), nil
}
