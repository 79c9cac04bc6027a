package results

import (
	"context"
	"fmt"
)

// Store is what the importer needs to reconcile a batch.
type Store interface {
	// GetTestResult returns ErrNotFound when no result is stored for the key.
	GetTestResult(ctx context.Context, testID, studentNumber int64) (TestResult, error)
	// AddTestResult returns ErrDuplicate when the key is already stored.
	AddTestResult(ctx context.Context, r TestResult) error
	// UpdateTestResult overwrites exactly fields on the row keyed by r.
	UpdateTestResult(ctx context.Context, r TestResult, fields []Field) error
}

// Repository adds the read-only reporting queries.
type Repository interface {
	Store
	GetTestResults(ctx context.Context, testID int64) ([]TestResult, error)
	GetAggregateTestResults(ctx context.Context, testID int64) (Aggregate, error)
}

func checkFields(fields []Field) error {
	for _, f := range fields {
		if !f.valid() {
			return fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}
	return nil
}
