package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"xoxo/internal/users"
)

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
	recipient  TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	candy_name TEXT    NOT NULL,
	sent_at    TEXT    NOT NULL,
	PRIMARY KEY (recipient, seq)
);
CREATE TABLE IF NOT EXISTS schedules (
	recipient     TEXT PRIMARY KEY,
	next_eligible TEXT
);
`

// SQLiteStore keeps every user's state in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and creates if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context, u users.User) (*State, error) {
	st := NewState()

	var next sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT next_eligible FROM schedules WHERE recipient = ?`, u.Name).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("load schedule of %s: %w", u.Name, err)
	case next.Valid:
		t, perr := time.Parse(time.RFC3339Nano, next.String)
		if perr != nil {
			return nil, fmt.Errorf("%w: %s: next_eligible: %v", ErrCorruptState, u.Name, perr)
		}
		t = t.UTC()
		st.NextEligible = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT candy_name, sent_at FROM deliveries WHERE recipient = ? ORDER BY seq`, u.Name)
	if err != nil {
		return nil, fmt.Errorf("load deliveries of %s: %w", u.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, sentAt string
		if err := rows.Scan(&name, &sentAt); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, u.Name, err)
		}
		t, err := time.Parse(time.RFC3339Nano, sentAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: sent_at: %v", ErrCorruptState, u.Name, err)
		}
		st.History = append(st.History, Record{CandyName: name, SentAt: t.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load deliveries of %s: %w", u.Name, err)
	}
	return st, nil
}

// Save replaces the user's rows in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, u users.User, st *State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersist, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM deliveries WHERE recipient = ?`, u.Name); err != nil {
		return fmt.Errorf("%w: clear deliveries: %v", ErrPersist, err)
	}
	for i, r := range st.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deliveries (recipient, seq, candy_name, sent_at) VALUES (?, ?, ?, ?)`,
			u.Name, i, r.CandyName, r.SentAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("%w: insert delivery: %v", ErrPersist, err)
		}
	}
	var next sql.NullString
	if st.NextEligible != nil {
		next = sql.NullString{String: st.NextEligible.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schedules (recipient, next_eligible) VALUES (?, ?)
		 ON CONFLICT(recipient) DO UPDATE SET next_eligible = excluded.next_eligible`,
		u.Name, next,
	); err != nil {
		return fmt.Errorf("%w: upsert schedule: %v", ErrPersist, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPersist, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
