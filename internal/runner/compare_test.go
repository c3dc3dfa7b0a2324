package runner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CJFEdu/AutoGrader/internal/runner"
)

func TestCompareOutputExactMatch(t *testing.T) {
	ok, msg := runner.CompareOutput("Test 1\n1 2 3\n", "Test 1\n1 2 3\n")
	require.True(t, ok)
	require.Empty(t, msg)
}

func TestCompareOutputIgnoresBlankLines(t *testing.T) {
	ok, _ := runner.CompareOutput("Test 1\n\n\n1 2 3\n", "\nTest 1\n1 2 3\n\n")
	require.True(t, ok)
}

func TestCompareOutputTrimsLineWhitespace(t *testing.T) {
	ok, _ := runner.CompareOutput("  Test 1  \n1 2 3\t\n", "Test 1\n1 2 3\n")
	require.True(t, ok)
}

func TestCompareOutputContentMismatch(t *testing.T) {
	ok, msg := runner.CompareOutput("Test 1\n1 2 4\n", "Test 1\n1 2 3\n")
	require.False(t, ok)
	require.Contains(t, msg, "does not match")
	require.Contains(t, msg, "1 2 4")
}

func TestCompareOutputInnerSpacingSignificant(t *testing.T) {
	ok, _ := runner.CompareOutput("1  2 3\n", "1 2 3\n")
	require.False(t, ok)
}

func TestCompareOutputMissingLines(t *testing.T) {
	ok, _ := runner.CompareOutput("Test 1\n", "Test 1\n1 2 3\n")
	require.False(t, ok)
}
