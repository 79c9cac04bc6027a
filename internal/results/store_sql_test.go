package results

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mind-engage/markr/internal/db"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh, string(db.DriverSQLite))
}

func TestSQLStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	r := TestResult{
		TestID: 9863, StudentNumber: 2299, ScannedOn: "2017-12-04T12:12:10+11:00",
		FirstName: "Jane", LastName: "Austen",
		MarksAvailable: 20, MarksObtained: 13, PercentageScore: "65.00",
	}

	if _, err := s.GetTestResult(ctx, 9863, 2299); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.AddTestResult(ctx, r); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddTestResult(ctx, r); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	got, err := s.GetTestResult(ctx, 9863, 2299)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != r {
		t.Fatalf("got %+v\nwant %+v", got, r)
	}

	upd := r
	upd.LastName = "Other"
	upd.MarksObtained = 17
	upd.PercentageScore = "85.00"
	if err := s.UpdateTestResult(ctx, upd, ScoreFields); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetTestResult(ctx, 9863, 2299)
	if got.LastName != "Austen" || got.MarksObtained != 17 || got.PercentageScore != "85.00" {
		t.Fatalf("after update %+v", got)
	}

	if err := s.UpdateTestResult(ctx, TestResult{TestID: 1, StudentNumber: 1}, ScoreFields); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.UpdateTestResult(ctx, upd, []Field{"student_number"}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("want ErrUnknownField, got %v", err)
	}
}

func TestSQLStore_ImportAndAggregate(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	im := NewImporter(nil)

	_, err := im.ImportResults(ctx, []RawRecord{
		rawScan("3", "9863", "20", "13"),
		rawScan("1", "9863", "20", "8"),
		rawScan("2", "9863", "20", "10"),
		rawScan("4", "9863", "20", "9"),
		rawScan("9", "1111", "20", "20"),
	}, s)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	rs, err := s.GetTestResults(ctx, 9863)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rs) != 4 {
		t.Fatalf("want 4 rows, got %d", len(rs))
	}
	for i, r := range rs {
		if r.StudentNumber != int64(i+1) {
			t.Fatalf("rows not ordered by student: %+v", rs)
		}
	}

	agg, err := s.GetAggregateTestResults(ctx, 9863)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := Summarize([]float64{65, 40, 50, 45})
	if agg != want {
		t.Fatalf("aggregate %+v, want %+v", agg, want)
	}

	empty, err := s.GetAggregateTestResults(ctx, 42)
	if err != nil || empty != (Aggregate{}) {
		t.Fatalf("empty aggregate %+v, %v", empty, err)
	}
}

func TestSQLStore_ScoreAboveHundred(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	out, err := NewImporter(nil).ImportResults(ctx, []RawRecord{rawScan("1", "77", "1", "101")}, s)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(out.Added) != 1 || out.Added[0].PercentageScore != "10100.00" {
		t.Fatalf("outcome = %+v", out)
	}
	got, err := s.GetTestResult(ctx, 77, 1)
	if err != nil || got.PercentageScore != "10100.00" {
		t.Fatalf("stored = %+v, %v", got, err)
	}
}
