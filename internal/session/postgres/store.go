// Package postgres stores session credentials in a shared Postgres database,
// one row per device.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `create table if not exists client_sessions (
	device_id  text primary key,
	credential text not null,
	updated_at timestamptz not null
)`

type Store struct {
	db       *sql.DB
	deviceID string
}

func Open(ctx context.Context, databaseURL, deviceID string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := New(ctx, db, deviceID)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func New(ctx context.Context, db *sql.DB, deviceID string) (*Store, error) {
	if deviceID == "" {
		return nil, errors.New("device id is required")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create client_sessions: %w", err)
	}
	return &Store{db: db, deviceID: deviceID}, nil
}

func (s *Store) Load(ctx context.Context) (string, error) {
	var credential string
	err := s.db.QueryRowContext(ctx,
		`select credential from client_sessions where device_id = $1`,
		s.deviceID,
	).Scan(&credential)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return credential, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into client_sessions(device_id, credential, updated_at)
		 values ($1, $2, now())
		 on conflict (device_id) do update
		 set credential = excluded.credential,
		     updated_at = excluded.updated_at`,
		s.deviceID, token,
	)
	return err
}

func (s *Store) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `delete from client_sessions where device_id = $1`, s.deviceID)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
