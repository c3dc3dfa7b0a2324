package results_test

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CJFEdu/AutoGrader/internal/results"
)

func sampleStudent() *results.Student {
	return &results.Student{
		FirstName: "John",
		LastName:  "Smith",
		Username:  "smithj",
		Language:  "java",
		Tests: []results.TestResult{
			{Name: "Test 1", Passed: true, Output: "Test 1\n1 2 3\n"},
			{Name: "Test 2", Passed: false, Output: "FAILED - Output does not match expected output"},
		},
		FullOutput:       "Test 1\n1 2 3\nTest 2\n",
		FullOutputPassed: false,
	}
}

func TestStudentAccessors(t *testing.T) {
	st := sampleStudent()
	require.Equal(t, "John Smith", st.FullName())
	require.True(t, st.Submitted())
	require.Equal(t, 1, st.PassedCount())

	empty := &results.Student{LastName: "Group 7"}
	require.Equal(t, "Group 7", empty.FullName())
	require.False(t, empty.Submitted())
}

func TestStoreSnapshotSorted(t *testing.T) {
	store := results.NewStore([]string{"Test 1", "Test 2"})
	store.Put(&results.Student{LastName: "Zed", Username: "zedq"})
	store.Put(sampleStudent())
	store.Put(&results.Student{FirstName: "Amy", LastName: "Adams"}) // no submission, no username

	res := store.Snapshot()
	require.Equal(t, []string{"Test 1", "Test 2"}, res.TestNames)
	require.Len(t, res.Students, 3)
	require.Equal(t, "Amy Adams", res.Students[0].FullName())
	require.Equal(t, "smithj", res.Students[1].Username)
	require.Equal(t, "zedq", res.Students[2].Username)
}

func TestStoreConcurrentPut(t *testing.T) {
	store := results.NewStore([]string{"Test 1"})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Put(&results.Student{LastName: "S", Username: fmt.Sprintf("user%02d", i)})
		}(i)
	}
	wg.Wait()

	res := store.Snapshot()
	require.Len(t, res.Students, 32)
	require.Equal(t, "user00", res.Students[0].Username)
	require.Equal(t, "user31", res.Students[31].Username)

	st, ok := store.Get("user07")
	require.True(t, ok)
	require.Equal(t, "user07", st.Username)
}

func TestValidateRejectsMalformedRecord(t *testing.T) {
	res := &results.Results{Students: []*results.Student{sampleStudent(), {}}}
	err := res.Validate()
	require.ErrorIs(t, err, results.ErrMalformedRecord)

	res = &results.Results{Students: []*results.Student{sampleStudent()}}
	require.NoError(t, res.Validate())
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	res := &results.Results{
		TestNames: []string{"Test 1", "Test 2"},
		Students:  []*results.Student{sampleStudent()},
	}
	require.NoError(t, results.SaveJSON(path, res))

	loaded, err := results.LoadJSON(path)
	require.NoError(t, err)
	require.Equal(t, res.TestNames, loaded.TestNames)
	require.Len(t, loaded.Students, 1)
	require.Equal(t, res.Students[0], loaded.Students[0])
}

func TestLoadJSONRejectsMalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	res := &results.Results{Students: []*results.Student{{}}}
	require.NoError(t, results.SaveJSON(path, res))

	_, err := results.LoadJSON(path)
	require.ErrorIs(t, err, results.ErrMalformedRecord)
}

func TestWriteCSV(t *testing.T) {
	res := &results.Results{
		TestNames: []string{"Test 1", "Test 2"},
		Students: []*results.Student{
			sampleStudent(),
			{FirstName: "Amy", LastName: "Adams"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, results.WriteCSV(&buf, res))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, []string{"Student", "Test 1", "Test 2", "Language", "Comments"}, rows[0])
	require.Equal(t, []string{"Smith, John", "Works correctly", "Does not produce correct output", "java", ""}, rows[1])
	require.Equal(t, []string{"Adams, Amy", "Not submitted", "Not submitted", "", "No submission"}, rows[2])
}
