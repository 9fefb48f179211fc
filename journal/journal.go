// Package journal keeps a history of completed print jobs. It is not a
// queue: entries are written only after the sequencer has returned.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed schema.sql
var schema string

type Entry struct {
	ID        string
	Kind      string
	Rows      int
	Copies    int
	Warnings  int
	CreatedAt time.Time
}

type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open journal database:\n%w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Failed to apply journal schema:\n%w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(e Entry) error {
	_, err := j.db.Exec(`
    INSERT INTO print_job (id, kind, rows, copies, warnings, created_at)
    VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Rows, e.Copies, e.Warnings, e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("Failed to record print job:\n%w", err)
	}
	return nil
}

func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(`
    SELECT id, kind, rows, copies, warnings, created_at
    FROM print_job
    ORDER BY created_at DESC
    LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("Failed to query print jobs:\n%w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Rows, &e.Copies, &e.Warnings, &createdAt); err != nil {
			return nil, fmt.Errorf("Failed to scan print job:\n%w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("Failed to parse print job timestamp:\n%w", err)
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("Failed to read print jobs:\n%w", err)
	}
	return entries, nil
}
