package db

import (
	"context"
	"strings"
	"testing"
)

func TestParseDriver(t *testing.T) {
	cases := map[string]Driver{
		"":           DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgresql": DriverPostgres,
		"pgx":        DriverPostgres,
		" memory ":   DriverMemory,
	}
	for in, want := range cases {
		got, err := ParseDriver(in)
		if err != nil || got != want {
			t.Errorf("ParseDriver(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDriver("oracle"); err == nil {
		t.Fatal("oracle accepted")
	}
}

func TestOpenSQLiteSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := "file:connect_test?mode=memory&cache=shared"
	first, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer first.Close()
	second, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	for _, table := range []string{"test_results", "import_log"} {
		var n int
		if err := second.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=$1`, table).Scan(&n); err != nil || n != 1 {
			t.Fatalf("table %s: n=%d err=%v", table, n, err)
		}
	}
	if _, err := Open(ctx, DriverMemory, ""); err == nil {
		t.Fatal("memory driver has no database to open")
	}
}

func TestPostgresScoreColumnIsUnbounded(t *testing.T) {
	if strings.Contains(schemaPostgres, "NUMERIC(") {
		t.Fatal("percentage_score must not carry a precision cap")
	}
	if !strings.Contains(schemaPostgres, "ALTER COLUMN percentage_score TYPE NUMERIC;") {
		t.Fatal("existing tables are not widened")
	}
}
