package fileprep

import (
	"fmt"
	"regexp"
	"strings"
)

// Template test files carry named test blocks delimited by marker comments:
//
//	// === test: insert ===
//	runInsertTest();
//	// === end test ===
//
// All three supported languages use // line comments, so the markers are
// language-independent. A generated file disables a block by prefixing every
// body line with the disable prefix; the operator activates exactly one block
// by removing those prefixes.

const disablePrefix = "// "

var (
	blockStartRe = regexp.MustCompile(`^\s*// === test: (.+?) ===(?:\s+pending)?\s*$`)
	blockEndRe   = regexp.MustCompile(`^\s*// === end test ===\s*$`)
)

type segmentKind int

const (
	segmentRaw segmentKind = iota
	segmentBlock
)

type segment struct {
	kind  segmentKind
	name  string   // block name, segmentBlock only
	lines []string // raw lines, or block body lines without markers
}

// Template is a parsed template test file.
type Template struct {
	segments []segment
}

// ParseTemplate splits template content into raw text and named test blocks.
func ParseTemplate(content string) (*Template, error) {
	t := &Template{}
	var raw []string
	var block *segment

	flushRaw := func() {
		if len(raw) > 0 {
			t.segments = append(t.segments, segment{kind: segmentRaw, lines: raw})
			raw = nil
		}
	}

	seen := map[string]bool{}
	for i, line := range strings.Split(content, "\n") {
		if m := blockStartRe.FindStringSubmatch(line); m != nil {
			if block != nil {
				return nil, fmt.Errorf("line %d: test block %q opened inside block %q", i+1, m[1], block.name)
			}
			if seen[m[1]] {
				return nil, fmt.Errorf("line %d: duplicate test block %q", i+1, m[1])
			}
			seen[m[1]] = true
			flushRaw()
			block = &segment{kind: segmentBlock, name: m[1]}
			continue
		}
		if blockEndRe.MatchString(line) {
			if block == nil {
				return nil, fmt.Errorf("line %d: end-of-test marker without an open block", i+1)
			}
			t.segments = append(t.segments, *block)
			block = nil
			continue
		}
		if block != nil {
			block.lines = append(block.lines, line)
		} else {
			raw = append(raw, line)
		}
	}
	if block != nil {
		return nil, fmt.Errorf("test block %q is not terminated", block.name)
	}
	flushRaw()
	return t, nil
}

// BlockNames returns the names of all test blocks in template order.
func (t *Template) BlockNames() []string {
	var names []string
	for _, seg := range t.segments {
		if seg.kind == segmentBlock {
			names = append(names, seg.name)
		}
	}
	return names
}

// HasBlock reports whether the template contains a block with the given name.
func (t *Template) HasBlock(name string) bool {
	for _, seg := range t.segments {
		if seg.kind == segmentBlock && seg.name == name {
			return true
		}
	}
	return false
}

// Render produces the staged content for one test: every block's body is
// disabled, and the block matching testName is tagged pending so the
// operator knows which one to activate. Returns ErrTestNameMismatch when no
// block carries testName.
func (t *Template) Render(testName string) (string, error) {
	if !t.HasBlock(testName) {
		return "", fmt.Errorf("test %q: %w", testName, ErrTestNameMismatch)
	}

	var out []string
	for _, seg := range t.segments {
		switch seg.kind {
		case segmentRaw:
			out = append(out, seg.lines...)
		case segmentBlock:
			marker := fmt.Sprintf("// === test: %s ===", seg.name)
			if seg.name == testName {
				marker += " pending"
			}
			out = append(out, marker)
			for _, line := range seg.lines {
				out = append(out, disableLine(line))
			}
			out = append(out, "// === end test ===")
		}
	}
	return strings.Join(out, "\n"), nil
}

func disableLine(line string) string {
	if strings.TrimSpace(line) == "" {
		return line
	}
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), disablePrefix) {
		return line
	}
	return disablePrefix + line
}

// activeLines counts block body lines that are neither blank nor disabled.
func activeLines(body []string) int {
	n := 0
	for _, line := range body {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		n++
	}
	return n
}
