// Package roster parses the assignment roster CSV. The header row carries
// the test names (the columns between the student column and the Language
// column); every following row is one student.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

const searchPatternMaxLen = 8

// Entry is one student row from the roster.
type Entry struct {
	FirstName string
	LastName  string

	// SearchPattern is the lowercased name prefix used to match this
	// student against submission archive filenames.
	SearchPattern string
}

// FullName returns "First Last", or just the single name part for rows
// such as group entries that carry no comma.
func (e Entry) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	return e.FirstName + " " + e.LastName
}

// Roster is the parsed CSV: the ordered test names plus one entry per student.
type Roster struct {
	TestNames []string
	Entries   []Entry
}

// ParseFile reads and parses a roster CSV from disk.
func ParseFile(path string, firstNameFirst bool) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()
	return Parse(f, firstNameFirst)
}

// Parse reads a roster CSV. Test names are the header columns between the
// first column and the "Language" column; that column must exist.
func Parse(r io.Reader, firstNameFirst bool) (*Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}

	langIdx := -1
	for i, col := range header {
		if strings.TrimSpace(col) == "Language" {
			langIdx = i
			break
		}
	}
	if langIdx < 1 {
		return nil, fmt.Errorf("roster header is missing a Language column")
	}

	res := &Roster{}
	for _, name := range header[1:langIdx] {
		res.TestNames = append(res.TestNames, strings.TrimSpace(name))
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster row: %w", err)
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		entry, ok := parseName(row[0], firstNameFirst)
		if !ok {
			continue
		}
		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

// parseName splits a roster name cell of the form "Last, First". A cell
// without a comma (e.g. "Group 1") is used whole as the search name.
func parseName(cell string, firstNameFirst bool) (Entry, bool) {
	parts := strings.Split(strings.Trim(cell, `"`), ",")
	if len(parts) == 0 {
		return Entry{}, false
	}

	if len(parts) < 2 {
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return Entry{}, false
		}
		return Entry{
			LastName:      name,
			SearchPattern: searchPattern(name, ""),
		}, true
	}

	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])

	var pattern string
	if firstNameFirst {
		pattern = searchPattern(first, last)
	} else {
		pattern = searchPattern(last, first)
	}

	return Entry{FirstName: first, LastName: last, SearchPattern: pattern}, true
}

func searchPattern(a, b string) string {
	s := strings.ToLower(strings.ReplaceAll(a+b, " ", ""))
	// Truncation counts runes, so accented names keep a valid pattern.
	if r := []rune(s); len(r) > searchPatternMaxLen {
		return string(r[:searchPatternMaxLen])
	}
	return s
}
