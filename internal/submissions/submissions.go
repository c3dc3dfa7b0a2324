// Package submissions handles student submission intake: extracting the
// submissions archive, matching archives to roster entries, detecting which
// languages a submission uses, and arranging per-test work directories.
package submissions

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/CJFEdu/AutoGrader/internal/archive"
	"github.com/CJFEdu/AutoGrader/internal/config"
)

// TempTestDir is the per-submission directory that holds the arranged test
// directories.
const TempTestDir = "temp_test"

// FullTestDir is the work directory for the unsplit full test run.
const FullTestDir = "full_test"

// Store manages the extracted submissions directory.
type Store struct {
	cfg *config.Config
	dir string
	log *slog.Logger

	zipNames []string
}

// NewStore returns a Store rooted at dir, the directory extracted
// submissions live in.
func NewStore(cfg *config.Config, dir string, log *slog.Logger) *Store {
	return &Store{cfg: cfg, dir: dir, log: log}
}

// Dir returns the submissions directory.
func (s *Store) Dir() string { return s.dir }

// EnsureExtracted makes sure the submissions directory is populated from the
// submissions archive and records the individual per-student zip names. With
// clean_start the directory is wiped and re-extracted.
func (s *Store) EnsureExtracted(zipPath string) error {
	if s.cfg.Grading.CleanStart {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("failed to clean submissions directory: %w", err)
		}
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create submissions directory: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read submissions directory: %w", err)
	}

	if len(entries) == 0 {
		if _, err := os.Stat(zipPath); err != nil {
			return fmt.Errorf("submissions directory is empty and no archive found at %s", zipPath)
		}
		s.log.Info("extracting submissions archive", "archive", filepath.Base(zipPath))
		if err := archive.Extract(zipPath, s.dir); err != nil {
			return err
		}
		entries, err = os.ReadDir(s.dir)
		if err != nil {
			return fmt.Errorf("failed to read submissions directory: %w", err)
		}
	}

	s.zipNames = s.zipNames[:0]
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".zip") {
			s.zipNames = append(s.zipNames, e.Name())
		}
	}
	s.log.Info("submissions available", "count", len(s.zipNames))
	return nil
}

// Match finds the submission archive whose name starts with the student's
// search pattern. The username is the filename segment before the first
// underscore.
func (s *Store) Match(pattern string) (zipName, username string, ok bool) {
	for _, name := range s.zipNames {
		if strings.HasPrefix(strings.ToLower(name), pattern) {
			username = name
			if i := strings.Index(name, "_"); i > 0 {
				username = name[:i]
			}
			return name, username, true
		}
	}
	return "", "", false
}

// Extract unpacks one student's archive into a directory named by their
// username. An existing extraction is reused.
func (s *Store) Extract(zipName, username string) (string, error) {
	dest := filepath.Join(s.dir, username)
	if _, err := os.Stat(dest); err == nil {
		s.log.Debug("reusing extracted submission", "student", username)
		return dest, nil
	}
	if err := archive.Extract(filepath.Join(s.dir, zipName), dest); err != nil {
		return "", fmt.Errorf("failed to extract submission for %s: %w", username, err)
	}
	return dest, nil
}

// DetectLanguages walks an extracted submission and reports the configured
// languages whose implementation extension appears, preserving the
// configured preference order.
func (s *Store) DetectLanguages(extractionPath string) []config.Language {
	found := mapset.NewSet[string]()

	filepath.Walk(extractionPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.Contains(path, TempTestDir) {
			return nil
		}
		ext := filepath.Ext(info.Name())
		for _, lang := range s.cfg.Languages {
			if ext == lang.Extension {
				found.Add(lang.Name)
			}
		}
		return nil
	})

	var langs []config.Language
	for _, lang := range s.cfg.Languages {
		if found.Contains(lang.Name) {
			langs = append(langs, lang)
		}
	}
	return langs
}

// FindImplementationFiles searches an extracted submission for the required
// implementation files and returns their paths, plus the names still
// missing. The arranged test directories are skipped.
func FindImplementationFiles(root string, required []string) (found map[string]string, missing []string) {
	found = make(map[string]string)

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.Contains(path, TempTestDir) {
			return nil
		}
		for _, want := range required {
			if info.Name() == want {
				if _, ok := found[want]; !ok {
					found[want] = path
				}
			}
		}
		return nil
	})

	for _, want := range required {
		if _, ok := found[want]; !ok {
			missing = append(missing, want)
		}
	}
	return found, missing
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
