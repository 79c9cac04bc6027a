package results

import (
	"context"
	"sort"
	"sync"
)

type resultKey struct{ testID, studentNumber int64 }

type memoryStore struct {
	mu   sync.RWMutex
	rows map[resultKey]TestResult
}

// NewInMemoryStore returns a Repository kept in process memory. The mutex
// keeps the map safe; it does not make read-then-write imports atomic.
func NewInMemoryStore() Repository {
	return &memoryStore{rows: map[resultKey]TestResult{}}
}

func (m *memoryStore) GetTestResult(_ context.Context, testID, studentNumber int64) (TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[resultKey{testID, studentNumber}]
	if !ok {
		return TestResult{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) AddTestResult(_ context.Context, r TestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := resultKey{r.TestID, r.StudentNumber}
	if _, ok := m.rows[k]; ok {
		return ErrDuplicate
	}
	m.rows[k] = r
	return nil
}

func (m *memoryStore) UpdateTestResult(_ context.Context, r TestResult, fields []Field) error {
	if err := checkFields(fields); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := resultKey{r.TestID, r.StudentNumber}
	cur, ok := m.rows[k]
	if !ok {
		return ErrNotFound
	}
	for _, f := range fields {
		f.apply(&cur, r)
	}
	m.rows[k] = cur
	return nil
}

func (m *memoryStore) GetTestResults(_ context.Context, testID int64) ([]TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestResult{}
	for k, r := range m.rows {
		if k.testID == testID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentNumber < out[j].StudentNumber })
	return out, nil
}

func (m *memoryStore) GetAggregateTestResults(ctx context.Context, testID int64) (Aggregate, error) {
	rs, err := m.GetTestResults(ctx, testID)
	if err != nil {
		return Aggregate{}, err
	}
	return Summarize(scoresOf(rs)), nil
}
