package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Importer validates scan batches and reconciles them against a Store.
// It holds no store of its own; callers pass one on every call.
type Importer struct {
	Log logrus.FieldLogger
}

func NewImporter(log logrus.FieldLogger) *Importer {
	return &Importer{Log: log}
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (im *Importer) logger() logrus.FieldLogger {
	if im == nil || im.Log == nil {
		return discard
	}
	return im.Log
}

// IsEntryHigherQuality reports whether candidate beats existing on marks
// available or marks obtained. It is not an ordering: two records can each
// beat the other on a different dimension.
func IsEntryHigherQuality(existing, candidate TestResult) bool {
	return candidate.MarksAvailable > existing.MarksAvailable ||
		candidate.MarksObtained > existing.MarksObtained
}

// ParseAndValidateResults builds every record and keeps one result per
// student number, preferring higher quality rescans. Any invalid record fails
// the whole batch. Results keep the position of their key's first appearance.
//
// Keying on student number alone means two different tests for the same
// student in one batch collapse into one result.
func (im *Importer) ParseAndValidateResults(raws []RawRecord) ([]TestResult, error) {
	built := make([]TestResult, 0, len(raws))
	for _, raw := range raws {
		tr, err := im.BuildTestResult(raw)
		if err != nil {
			return nil, err
		}
		built = append(built, tr)
	}

	index := map[string]int{}
	out := make([]TestResult, 0, len(built))
	for _, tr := range built {
		key := strconv.FormatInt(tr.StudentNumber, 10)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, tr)
			continue
		}
		if IsEntryHigherQuality(out[i], tr) {
			out[i] = tr
			continue
		}
		im.logger().WithFields(logrus.Fields{
			"test_id":        tr.TestID,
			"student_number": tr.StudentNumber,
		}).Debug("dropping lower quality duplicate in batch")
	}
	return out, nil
}

// ImportResults reconciles a batch against store one result at a time.
//
// Validation failures abort before any store call. A store failure aborts the
// remaining results but leaves earlier writes in place; there is no
// transaction across the batch.
func (im *Importer) ImportResults(ctx context.Context, raws []RawRecord, store Store) (Outcome, error) {
	parsed, err := im.ParseAndValidateResults(raws)
	if err != nil {
		return Outcome{}, err
	}

	out := newOutcome()
	for _, tr := range parsed {
		existing, err := store.GetTestResult(ctx, tr.TestID, tr.StudentNumber)
		switch {
		case errors.Is(err, ErrNotFound):
			if err := store.AddTestResult(ctx, tr); err != nil {
				return Outcome{}, storeErr("add", tr, err)
			}
			out.Added = append(out.Added, tr)
		case err != nil:
			return Outcome{}, storeErr("get", tr, err)
		case IsEntryHigherQuality(existing, tr):
			if err := store.UpdateTestResult(ctx, tr, ScoreFields); err != nil {
				return Outcome{}, storeErr("update", tr, err)
			}
			out.Updated = append(out.Updated, tr)
		default:
			out.Warnings = append(out.Warnings, DuplicateWarning(tr))
		}
	}

	im.logger().WithFields(logrus.Fields{
		"added":    len(out.Added),
		"updated":  len(out.Updated),
		"warnings": len(out.Warnings),
	}).Info("import reconciled")
	return out, nil
}

// DuplicateWarning is reported when a scan does not improve on the stored one.
func DuplicateWarning(tr TestResult) string {
	return fmt.Sprintf("Warn: test_id_%d has already been received for student_%d", tr.TestID, tr.StudentNumber)
}

func storeErr(op string, tr TestResult, err error) error {
	return &StoreError{Op: op, TestID: tr.TestID, StudentNumber: tr.StudentNumber, Err: err}
}
