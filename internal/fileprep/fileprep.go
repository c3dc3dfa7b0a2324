// Package fileprep generates per-test copies of template test files and
// splits the expected-output file into per-test sections.
package fileprep

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CJFEdu/AutoGrader/internal/config"
)

// Sentinel errors surfaced by the preparation step. Both are one-shot
// failures: the operator fixes the inputs and re-runs.
var (
	ErrMissingTemplate  = errors.New("template file not found")
	ErrTestNameMismatch = errors.New("no matching test block in template")
)

// TemplateBaseName is the base name of every correctness template test
// file; the language's template extension is appended to it.
const TemplateBaseName = "TestCorrectness"

// TimingBaseName is the base name of the timing template test file used by
// the timing check.
const TimingBaseName = "TestTime"

// Prep generates staged test files from templates.
type Prep struct {
	cfg *config.Config
	log *slog.Logger
}

// New returns a Prep bound to an immutable configuration.
func New(cfg *config.Config, log *slog.Logger) *Prep {
	return &Prep{cfg: cfg, log: log}
}

// Summary reports what a preparation run produced.
type Summary struct {
	FilesWritten int
	PerLanguage  map[string]int
}

// StagedFileName encodes both the test name and the language in the
// generated file's name.
func StagedFileName(testName string, lang config.Language) string {
	return fmt.Sprintf("%s_%s%s", sanitize(testName), lang.Name, lang.TemplateExt)
}

func sanitize(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// Prepare writes one staged test file per (language, test name) pair into
// stagingDir: exactly K×L files for K test names and L configured
// languages. Template files are never mutated. Every staged file starts
// with all test blocks disabled; activation is the operator's step.
func (p *Prep) Prepare(templateDir, stagingDir string, testNames []string) (*Summary, error) {
	if len(testNames) == 0 {
		return nil, fmt.Errorf("no test names to prepare files for")
	}
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	sum := &Summary{PerLanguage: make(map[string]int)}
	for _, lang := range p.cfg.Languages {
		tmplPath := filepath.Join(templateDir, TemplateBaseName+lang.TemplateExt)
		data, err := os.ReadFile(tmplPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("language %s (%s): %w", lang.Name, tmplPath, ErrMissingTemplate)
			}
			return nil, fmt.Errorf("failed to read template for %s: %w", lang.Name, err)
		}

		tmpl, err := ParseTemplate(string(data))
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", lang.Name, err)
		}

		for _, testName := range testNames {
			content, err := tmpl.Render(testName)
			if err != nil {
				return nil, fmt.Errorf("language %s: %w", lang.Name, err)
			}
			outPath := filepath.Join(stagingDir, StagedFileName(testName, lang))
			if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
				return nil, fmt.Errorf("failed to write staged file: %w", err)
			}
			sum.FilesWritten++
			sum.PerLanguage[lang.Name]++
			p.log.Debug("staged test file", "file", filepath.Base(outPath))
		}
	}

	p.log.Info("file preparation complete",
		"files", sum.FilesWritten,
		"tests", len(testNames),
		"languages", len(p.cfg.Languages))
	return sum, nil
}

// headerSection is one located test header within the expected-output file.
type headerSection struct {
	index int // position in cfg.Tests.Headers, zero-based
	start int // byte offset in the file content
}

// SplitExpectedOutput cuts the expected-output file into one section per
// configured test header, writing expectedoutput<i>.txt per section (i is
// the header's configured index, one-based) plus the whole file as
// expectedoutput.txt. Headers absent from the file are logged and skipped.
func (p *Prep) SplitExpectedOutput(srcPath, outDir string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read expected output file: %w", err)
	}
	content := string(data)

	var sections []headerSection
	for i, header := range p.cfg.Tests.Headers {
		pos := strings.Index(content, header)
		if pos < 0 {
			p.log.Warn("test header not found in expected output", "header", header)
			continue
		}
		sections = append(sections, headerSection{index: i, start: pos})
	}
	sort.Slice(sections, func(a, b int) bool { return sections[a].start < sections[b].start })

	for i, sec := range sections {
		end := len(content)
		if i+1 < len(sections) {
			end = sections[i+1].start
		}
		name := fmt.Sprintf("expectedoutput%d.txt", sec.index+1)
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(content[sec.start:end]), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		p.log.Debug("wrote expected output section", "file", name)
	}

	full := filepath.Join(outDir, "expectedoutput.txt")
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write full expected output: %w", err)
	}
	return nil
}
