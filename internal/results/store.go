package results

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store collects student records from concurrently graded submissions.
type Store struct {
	testNames []string
	students  *xsync.MapOf[string, *Student]
}

// NewStore returns an empty store for a run over the given tests.
func NewStore(testNames []string) *Store {
	return &Store{
		testNames: testNames,
		students:  xsync.NewMapOf[string, *Student](),
	}
}

// Put records a student's result, keyed by username (or full name when the
// student never submitted and has no username).
func (s *Store) Put(st *Student) {
	key := st.Username
	if key == "" {
		key = st.FullName()
	}
	s.students.Store(key, st)
}

// Get returns a previously recorded student.
func (s *Store) Get(username string) (*Student, bool) {
	return s.students.Load(username)
}

// Snapshot freezes the store into a Results value with students sorted by
// their record key, so two identical runs produce identical snapshots.
func (s *Store) Snapshot() *Results {
	res := &Results{TestNames: s.testNames}
	s.students.Range(func(_ string, st *Student) bool {
		res.Students = append(res.Students, st)
		return true
	})
	sort.Slice(res.Students, func(a, b int) bool {
		ka, kb := res.Students[a].Username, res.Students[b].Username
		if ka == "" {
			ka = res.Students[a].FullName()
		}
		if kb == "" {
			kb = res.Students[b].FullName()
		}
		return ka < kb
	})
	return res
}

// SaveJSON writes a snapshot to disk for later rendering.
func SaveJSON(path string, res *Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results snapshot: %w", err)
	}
	return nil
}

// LoadJSON reads a snapshot back, validating every record.
func LoadJSON(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results snapshot: %w", err)
	}
	res := &Results{}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("failed to parse results snapshot: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
