// Package sqlite stores the session credential in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const credentialKey = "session_cookie"

const schema = `create table if not exists client_state (
	key        text primary key,
	value      text not null,
	updated_at text not null
)`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New uses an already opened database and ensures the schema exists.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create client_state: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `select value from client_state where key = ?`, credentialKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into client_state(key, value, updated_at) values (?, ?, ?)
		 on conflict (key) do update set value = excluded.value, updated_at = excluded.updated_at`,
		credentialKey, token, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `delete from client_state where key = ?`, credentialKey)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
