package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run kinds, one per artifact type.
const (
	KindDaily      = "daily"
	KindActivities = "activities"
)

// Run is the bookkeeping record for one export artifact.
type Run struct {
	ID         string
	Kind       string
	StartDate  string
	EndDate    string
	Categories []string
	File       string
	ItemCount  int
	ErrorCount int
	CreatedAt  time.Time
}

// RecordRun inserts a run row. A missing ID gets a fresh one.
func (s *Store) RecordRun(r Run) (*Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO export_runs (id, kind, start_date, end_date, categories, file, item_count, error_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.StartDate, r.EndDate, strings.Join(r.Categories, ","),
		r.File, r.ItemCount, r.ErrorCount, now,
	)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return s.GetRun(r.ID)
}

func (s *Store) GetRun(id string) (*Run, error) {
	r := &Run{}
	var categories, createdAt string

	err := s.db.QueryRow(
		`SELECT id, kind, start_date, end_date, categories, file, item_count, error_count, created_at
		 FROM export_runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Kind, &r.StartDate, &r.EndDate, &categories, &r.File, &r.ItemCount, &r.ErrorCount, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if categories != "" {
		r.Categories = strings.Split(categories, ",")
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

// ListRuns returns runs newest first, optionally filtered by kind.
func (s *Store) ListRuns(kind string, limit int) ([]Run, error) {
	query := `SELECT id, kind, start_date, end_date, categories, file, item_count, error_count, created_at
	          FROM export_runs WHERE 1=1`
	var args []any

	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var categories, createdAt string
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartDate, &r.EndDate, &categories, &r.File, &r.ItemCount, &r.ErrorCount, &createdAt); err != nil {
			return nil, err
		}
		if categories != "" {
			r.Categories = strings.Split(categories, ",")
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
