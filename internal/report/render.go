// Package report renders a grading run into a single self-contained HTML
// page with collapsible per-student rows and copy-to-clipboard buttons.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"github.com/CJFEdu/AutoGrader/internal/results"
)

//go:embed page.html
var pageHTML string

// Header is the free-form page header block.
type Header struct {
	ClassName      string
	AssignmentName string
	Section        string
	GeneratedAt    time.Time
}

type statusPart struct {
	Text  string
	Class string
}

type testRow struct {
	ID          string
	Name        string
	Status      string
	StatusClass string
	Output      string
	Passed      bool
}

type row struct {
	ID         string
	Name       string
	Language   string
	Submitted  bool
	Status     []statusPart
	Correlated string
	FullOutput string
	Tests      []testRow
}

type page struct {
	ClassName      string
	AssignmentName string
	Section        string
	GeneratedAt    string
	Rows           []row
}

// Renderer turns result snapshots into the static report page.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded page template.
func New() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full page. Rendering the same snapshot twice produces
// byte-identical row markup; only the header timestamp varies.
func (r *Renderer) Render(w io.Writer, hdr Header, res *results.Results) error {
	if err := res.Validate(); err != nil {
		return err
	}

	p := page{
		ClassName:      hdr.ClassName,
		AssignmentName: hdr.AssignmentName,
		Section:        hdr.Section,
		GeneratedAt:    hdr.GeneratedAt.Format(time.RFC1123),
	}
	for _, st := range res.Students {
		p.Rows = append(p.Rows, buildRow(st))
	}

	if err := r.tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderFile writes the page to path.
func (r *Renderer) RenderFile(path string, hdr Header, res *results.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return r.Render(f, hdr, res)
}

// RenderRows renders only the per-student rows, timestamp-free; used by the
// determinism checks.
func (r *Renderer) RenderRows(w io.Writer, res *results.Results) error {
	if err := res.Validate(); err != nil {
		return err
	}
	var rows []row
	for _, st := range res.Students {
		rows = append(rows, buildRow(st))
	}
	if err := r.tmpl.ExecuteTemplate(w, "rows", rows); err != nil {
		return fmt.Errorf("failed to render rows: %w", err)
	}
	return nil
}

func rowID(st *results.Student) string {
	id := st.Username
	if id == "" {
		id = st.FullName()
	}
	return strings.ToLower(strings.ReplaceAll(id, " ", "_"))
}

func buildRow(st *results.Student) row {
	r := row{
		ID:        rowID(st),
		Name:      st.FullName(),
		Language:  st.Language,
		Submitted: st.Submitted(),
	}
	if !r.Submitted {
		return r
	}

	passed := st.PassedCount()
	failed := len(st.Tests) - passed
	if failed > 0 {
		r.Status = append(r.Status, statusPart{Text: fmt.Sprintf("%d failed", failed), Class: "status-failed"})
	}
	if passed > 0 {
		r.Status = append(r.Status, statusPart{Text: fmt.Sprintf("%d passed", passed), Class: "status-passed"})
	}
	if st.FullOutputPassed {
		r.Status = append(r.Status, statusPart{Text: "Full output passed", Class: "status-passed"})
	} else {
		r.Status = append(r.Status, statusPart{Text: "Full output failed", Class: "status-failed"})
	}

	var correlated strings.Builder
	for i, t := range st.Tests {
		correlated.WriteString(t.Output)

		tr := testRow{
			ID:     fmt.Sprintf("%s-test%d", r.ID, i+1),
			Name:   t.Name,
			Output: t.Output,
			Passed: t.Passed,
		}
		if t.Passed {
			tr.Status, tr.StatusClass = "Passed", "status-passed"
		} else {
			tr.Status, tr.StatusClass = "Failed", "status-failed"
		}
		r.Tests = append(r.Tests, tr)
	}
	r.Correlated = correlated.String()
	r.FullOutput = st.FullOutput
	return r
}
