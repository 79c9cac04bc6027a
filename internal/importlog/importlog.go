package importlog

import (
	"context"
	"database/sql"
	"time"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusInvalid Status = "invalid" // payload rejected before any store write
	StatusFailed  Status = "failed"  // store failure; earlier writes may be committed
)

type Entry struct {
	ID           string    `json:"id"`
	ReceivedAt   time.Time `json:"received_at"`
	ContentType  string    `json:"content_type"`
	PayloadBytes int64     `json:"payload_bytes"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Added        int       `json:"added"`
	Updated      int       `json:"updated"`
	Warnings     int       `json:"warnings"`
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Entry) error {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_log (id, received_at, content_type, payload_bytes, archive_key, status, error, added, updated, warnings)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.ReceivedAt.Unix(), e.ContentType, e.PayloadBytes, e.ArchiveKey,
		string(e.Status), e.Error, e.Added, e.Updated, e.Warnings)
	return err
}

// Recent returns up to limit entries, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, received_at, content_type, payload_bytes, archive_key, status, error, added, updated, warnings
		   FROM import_log ORDER BY received_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		var at int64
		var status string
		if err := rows.Scan(&e.ID, &at, &e.ContentType, &e.PayloadBytes, &e.ArchiveKey,
			&status, &e.Error, &e.Added, &e.Updated, &e.Warnings); err != nil {
			return nil, err
		}
		e.ReceivedAt = time.Unix(at, 0).UTC()
		e.Status = Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
