package submissions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/CJFEdu/AutoGrader/internal/config"
	"github.com/CJFEdu/AutoGrader/internal/fileprep"
)

var packageDeclRe = regexp.MustCompile(`(?m)^[ \t]*package[ \t]+[\w.]+[ \t]*;[ \t]*\r?\n?`)

// copySource copies one source file into a work directory. Work directories
// are flat, so languages that compile by package get their package
// declarations removed on the way in.
func copySource(src, dst string, strip bool) error {
	if !strip {
		return copyFile(src, dst)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	data = packageDeclRe.ReplaceAll(data, nil)
	return os.WriteFile(dst, data, 0644)
}

// Arrangement describes the work directories prepared for one submission in
// one language.
type Arrangement struct {
	TempDir  string   // <extraction>/temp_test
	TestDirs []string // test_1 .. test_K, in test order
	FullDir  string   // full_test
}

// Arrange builds the per-test work directories for a submission: for every
// test a directory holding the staged test file (renamed back to the base
// test-file name), the student's implementation files, and the assignment's
// provided and resource files; plus a full_test directory driven by the
// unsplit template. Returns the missing required files as an error when the
// submission is incomplete.
func (s *Store) Arrange(extractionPath string, lang config.Language, templateDir, stagingDir string, testNames []string) (*Arrangement, error) {
	required := make([]string, 0, len(s.cfg.Assignment.RequiredFiles))
	for _, name := range s.cfg.Assignment.RequiredFiles {
		required = append(required, name+lang.Extension)
	}

	found, missing := FindImplementationFiles(extractionPath, required)
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required implementation files: %v", missing)
	}

	arr := &Arrangement{TempDir: filepath.Join(extractionPath, TempTestDir)}

	for _, testName := range testNames {
		dir := filepath.Join(arr.TempDir, fmt.Sprintf("test_%d", len(arr.TestDirs)+1))
		src := filepath.Join(stagingDir, fileprep.StagedFileName(testName, lang))
		if err := s.populateTestDir(dir, src, fileprep.TemplateBaseName, lang, templateDir, found); err != nil {
			return nil, fmt.Errorf("test %q: %w", testName, err)
		}
		arr.TestDirs = append(arr.TestDirs, dir)
	}

	fullDir := filepath.Join(arr.TempDir, FullTestDir)
	fullSrc := filepath.Join(templateDir, fileprep.TemplateBaseName+lang.TemplateExt)
	if err := s.populateTestDir(fullDir, fullSrc, fileprep.TemplateBaseName, lang, templateDir, found); err != nil {
		return nil, fmt.Errorf("full test: %w", err)
	}
	arr.FullDir = fullDir

	return arr, nil
}

// ArrangeTiming builds only the full_test work directory, driven by the
// timing template instead of the correctness one.
func (s *Store) ArrangeTiming(extractionPath string, lang config.Language, templateDir string) (*Arrangement, error) {
	required := make([]string, 0, len(s.cfg.Assignment.RequiredFiles))
	for _, name := range s.cfg.Assignment.RequiredFiles {
		required = append(required, name+lang.Extension)
	}

	found, missing := FindImplementationFiles(extractionPath, required)
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required implementation files: %v", missing)
	}

	arr := &Arrangement{TempDir: filepath.Join(extractionPath, TempTestDir)}
	fullDir := filepath.Join(arr.TempDir, "time_test")
	fullSrc := filepath.Join(templateDir, fileprep.TimingBaseName+lang.TemplateExt)
	if err := s.populateTestDir(fullDir, fullSrc, fileprep.TimingBaseName, lang, templateDir, found); err != nil {
		return nil, fmt.Errorf("timing test: %w", err)
	}
	arr.FullDir = fullDir
	return arr, nil
}

// populateTestDir fills one work directory: the test file (under destBase
// plus the language's template extension), the student's implementation
// files, and the provided and resource files shipped alongside the
// templates.
func (s *Store) populateTestDir(dir, testFileSrc, destBase string, lang config.Language, templateDir string, impl map[string]string) error {
	if s.cfg.Grading.CleanStart {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clean work directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	dest := filepath.Join(dir, destBase+lang.TemplateExt)
	if _, err := os.Stat(testFileSrc); err != nil {
		return fmt.Errorf("test file %s: %w", filepath.Base(testFileSrc), err)
	}
	if err := copySource(testFileSrc, dest, lang.StripPackage); err != nil {
		return fmt.Errorf("failed to copy test file: %w", err)
	}

	for name, path := range impl {
		if err := copySource(path, filepath.Join(dir, name), lang.StripPackage); err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}
	}

	for _, provided := range s.cfg.Assignment.ProvidedFiles {
		name := provided + lang.Extension
		src := filepath.Join(templateDir, name)
		if _, err := os.Stat(src); err != nil {
			s.log.Debug("provided file absent for language", "file", name, "language", lang.Name)
			continue
		}
		if err := copySource(src, filepath.Join(dir, name), lang.StripPackage); err != nil {
			return fmt.Errorf("failed to copy provided file %s: %w", name, err)
		}
	}

	for _, resource := range s.cfg.Assignment.ResourceFiles {
		src := filepath.Join(templateDir, resource)
		if _, err := os.Stat(src); err != nil {
			s.log.Debug("resource file absent", "file", resource)
			continue
		}
		if err := copyFile(src, filepath.Join(dir, resource)); err != nil {
			return fmt.Errorf("failed to copy resource file %s: %w", resource, err)
		}
	}

	return nil
}

// Reload re-runs only the arrangement step over every already-extracted
// submission directory, refreshing the test files without touching student
// code.
func (s *Store) Reload(templateDir, stagingDir string, testNames []string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read submissions directory: %w", err)
	}

	reloaded := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		extraction := filepath.Join(s.dir, entry.Name())
		langs := s.DetectLanguages(extraction)
		if len(langs) == 0 {
			s.log.Warn("no recognized languages", "student", entry.Name())
			continue
		}
		for _, lang := range langs {
			if _, err := s.Arrange(extraction, lang, templateDir, stagingDir, testNames); err != nil {
				s.log.Warn("failed to reload test files",
					"student", entry.Name(), "language", lang.Name, "error", err)
				continue
			}
		}
		reloaded++
	}
	s.log.Info("reloaded test files", "submissions", reloaded)
	return nil
}
