package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var QueryTimeoutDuration = time.Second * 5

// PostgresStore keeps each session as a single row, so the principal and
// the logged-in flag move together in one statement.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	const q = `
		SELECT data, logged_in
		FROM portal_sessions
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		raw      []byte
		loggedIn bool
	)
	err := s.db.QueryRow(ctx, q, id).Scan(&raw, &loggedIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Malformed persisted state reads as absent, never as an error.
		return nil, nil
	}

	// The flag column and the serialized record must agree; a session
	// violating the invariant is treated as logged out.
	if rec.LoggedIn != loggedIn {
		return nil, nil
	}
	return &rec, nil
}

func (s *PostgresStore) Set(ctx context.Context, id string, rec *Record) error {
	const q = `
		INSERT INTO portal_sessions (id, data, logged_in, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, logged_in = EXCLUDED.logged_in, updated_at = now()
	`

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err = s.db.Exec(ctx, q, id, raw, rec.LoggedIn)
	return err
}

func (s *PostgresStore) Clear(ctx context.Context, id string) error {
	const q = `DELETE FROM portal_sessions WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, q, id)
	return err
}
