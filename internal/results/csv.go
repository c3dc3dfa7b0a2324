package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV emits the summary sheet: one row per student with a per-test
// verdict, the graded language, and a comments column.
func WriteCSV(w io.Writer, res *Results) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Student"}, res.TestNames...)
	header = append(header, "Language", "Comments")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, st := range res.Students {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%s, %s", st.LastName, st.FirstName))

		if st.Submitted() {
			for _, testName := range res.TestNames {
				row = append(row, verdict(st, testName))
			}
			row = append(row, st.Language, st.Notes)
		} else {
			for range res.TestNames {
				row = append(row, "Not submitted")
			}
			row = append(row, "", "No submission")
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the summary sheet to path.
func WriteCSVFile(path string, res *Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results CSV: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, res)
}

func verdict(st *Student, testName string) string {
	for _, t := range st.Tests {
		if t.Name == testName {
			if t.Passed {
				return "Works correctly"
			}
			return "Does not produce correct output"
		}
	}
	return "N/A"
}
