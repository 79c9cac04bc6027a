package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLStore keeps results in the test_results table created by internal/db.
// Placeholders are $N, which both pgx and modernc sqlite accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const selectResult = `SELECT test_id, student_number, scanned_on, first_name, last_name,
	marks_available, marks_obtained, CAST(percentage_score AS TEXT)
	FROM test_results`

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (TestResult, error) {
	var r TestResult
	err := row.Scan(&r.TestID, &r.StudentNumber, &r.ScannedOn, &r.FirstName, &r.LastName,
		&r.MarksAvailable, &r.MarksObtained, &r.PercentageScore)
	return r, err
}

func (s *SQLStore) GetTestResult(ctx context.Context, testID, studentNumber int64) (TestResult, error) {
	row := s.db.QueryRowContext(ctx, selectResult+` WHERE test_id=$1 AND student_number=$2`, testID, studentNumber)
	r, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestResult{}, ErrNotFound
		}
		return TestResult{}, err
	}
	return r, nil
}

func (s *SQLStore) AddTestResult(ctx context.Context, r TestResult) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO test_results
		(test_id, student_number, scanned_on, first_name, last_name,
		 marks_available, marks_obtained, percentage_score, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.TestID, r.StudentNumber, r.ScannedOn, r.FirstName, r.LastName,
		r.MarksAvailable, r.MarksObtained, r.PercentageScore, now, now)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLStore) UpdateTestResult(ctx context.Context, r TestResult, fields []Field) error {
	if err := checkFields(fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+3)
	for _, f := range fields {
		args = append(args, f.value(r))
		sets = append(sets, fmt.Sprintf("%s=$%d", f, len(args)))
	}
	args = append(args, time.Now().Unix())
	sets = append(sets, fmt.Sprintf("updated_at=$%d", len(args)))
	args = append(args, r.TestID, r.StudentNumber)

	q := fmt.Sprintf(`UPDATE test_results SET %s WHERE test_id=$%d AND student_number=$%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) GetTestResults(ctx context.Context, testID int64) ([]TestResult, error) {
	rows, err := s.db.QueryContext(ctx, selectResult+` WHERE test_id=$1 ORDER BY student_number`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetAggregateTestResults computes the statistics in Go so SQLite and
// Postgres report identical figures.
func (s *SQLStore) GetAggregateTestResults(ctx context.Context, testID int64) (Aggregate, error) {
	rs, err := s.GetTestResults(ctx, testID)
	if err != nil {
		return Aggregate{}, err
	}
	return Summarize(scoresOf(rs)), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") // sqlite
}
