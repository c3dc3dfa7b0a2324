// Package runner compiles and executes one arranged test directory using
// the language's configured command templates.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/CJFEdu/AutoGrader/internal/config"
	"github.com/CJFEdu/AutoGrader/internal/fileprep"
)

// maxAttempts bounds the re-runs performed when a test times out.
const maxAttempts = 3

// Execution is the outcome of compiling and running one test directory.
type Execution struct {
	Passed   bool
	Output   string
	TimedOut bool
	Attempts int
}

// Runner executes configured compile/run commands with a per-run timeout.
type Runner struct {
	timeout time.Duration
	log     *slog.Logger
}

// New returns a Runner with the given run timeout.
func New(timeout time.Duration, log *slog.Logger) *Runner {
	return &Runner{timeout: timeout, log: log}
}

var absPathRe = regexp.MustCompile(`(/[^\s:]+/)+([^\s:/]+\.\w+)`)

// scrubPaths replaces absolute file paths in tool output with bare
// filenames so compiler errors stay readable.
func scrubPaths(s string) string {
	return absPathRe.ReplaceAllString(s, "$2")
}

// expand substitutes the {file}, {main} and {dir} placeholders in a command
// argv. base is the test file's base name without extension.
func expand(argv []string, lang config.Language, dir, base string) []string {
	file := base + lang.TemplateExt
	out := make([]string, len(argv))
	for i, a := range argv {
		a = strings.ReplaceAll(a, "{file}", file)
		a = strings.ReplaceAll(a, "{main}", base)
		a = strings.ReplaceAll(a, "{dir}", dir)
		out[i] = a
	}
	return out
}

// Run compiles (when the language declares a compile command) and executes
// the test in dir. base is the test file's base name, usually
// fileprep.TemplateBaseName. A timed-out run is retried up to maxAttempts
// times, the original operator workflow for flaky machines.
func (r *Runner) Run(ctx context.Context, lang config.Language, dir, base string) *Execution {
	if base == "" {
		base = fileprep.TemplateBaseName
	}
	if len(lang.CompileCmd) > 0 {
		out, err := r.execute(ctx, expand(lang.CompileCmd, lang, dir, base), dir, 0)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return &Execution{Output: "CANCELED", Attempts: 1}
			}
			if errors.Is(err, exec.ErrNotFound) {
				return &Execution{Output: fmt.Sprintf("FAILED - Compiler not found for %s: %v", lang.Name, err), Attempts: 1}
			}
			return &Execution{Output: "FAILED - Compilation Error\n" + scrubPaths(out), Attempts: 1}
		}
	}

	res := &Execution{}
	for res.Attempts = 1; res.Attempts <= maxAttempts; res.Attempts++ {
		out, err := r.execute(ctx, expand(lang.RunCmd, lang, dir, base), dir, r.timeout)
		if errors.Is(err, context.Canceled) {
			res.Output = "CANCELED"
			return res
		}
		if errors.Is(err, context.DeadlineExceeded) {
			res.TimedOut = true
			res.Output = "TIMEOUT"
			r.log.Warn("test run timed out",
				"dir", dir, "attempt", res.Attempts, "of", maxAttempts)
			continue
		}
		res.TimedOut = false
		if err != nil {
			res.Output = fmt.Sprintf("FAILED - Runtime error: %s", scrubPaths(out))
			return res
		}
		res.Passed = true
		res.Output = out
		return res
	}
	res.Attempts = maxAttempts
	return res
}

// execute runs one command in dir, returning its combined output. A zero
// timeout means no deadline (compilation). The returned error is
// context.DeadlineExceeded for timeouts, the caller context's error when
// that context ended the run, exec.ErrNotFound for missing binaries, or
// the command's exit error.
func (r *Runner) execute(ctx context.Context, argv []string, dir string, timeout time.Duration) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return buf.String(), context.DeadlineExceeded
	}
	// A kill ordered by the caller's context is not the student's failure.
	if ctx.Err() != nil {
		return buf.String(), ctx.Err()
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return buf.String(), exec.ErrNotFound
		}
		return buf.String(), err
	}
	return buf.String(), nil
}
