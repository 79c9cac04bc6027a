package results

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("test result not found")
	ErrDuplicate    = errors.New("test result already exists")
	ErrUnknownField = errors.New("unknown test result field")
)

// InvalidPayloadError rejects a raw record before anything reaches the store.
// TestID and StudentNumber hold the raw values as received, which may be empty.
type InvalidPayloadError struct {
	Missing       []string
	Invalid       []string
	TestID        string
	StudentNumber string
}

func (e *InvalidPayloadError) Error() string {
	var b strings.Builder
	b.WriteString("Invalid Test:")
	if len(e.Missing) > 0 {
		b.WriteString(" missing values ")
		b.WriteString(strings.Join(e.Missing, ","))
	}
	if len(e.Invalid) > 0 {
		if len(e.Missing) > 0 {
			b.WriteString(";")
		}
		b.WriteString(" invalid values ")
		b.WriteString(strings.Join(e.Invalid, ","))
	}
	fmt.Fprintf(&b, " - test_id:%s, student_id:%s", e.TestID, e.StudentNumber)
	return b.String()
}

// IsInvalidPayload reports whether err is (or wraps) an InvalidPayloadError.
func IsInvalidPayload(err error) bool {
	var ip *InvalidPayloadError
	return errors.As(err, &ip)
}

// StoreError wraps a failed store call during reconciliation.
type StoreError struct {
	Op            string
	TestID        int64
	StudentNumber int64
	Err           error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s test_id=%d student_number=%d: %v", e.Op, e.TestID, e.StudentNumber, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
