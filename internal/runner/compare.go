package runner

import "strings"

// CompareOutput checks actual program output against the expected text.
// Blank lines are ignored and every line is compared with surrounding
// whitespace trimmed; anything else must match exactly. On mismatch the
// returned message embeds the actual output for the operator.
func CompareOutput(actual, expected string) (bool, string) {
	if equalLines(significantLines(actual), significantLines(expected)) {
		return true, ""
	}
	return false, "Output does not match expected output:\nActual output:\n" + actual + "\n"
}

func significantLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
