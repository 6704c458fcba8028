package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"OrderPlus/pkg/kit"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id        TEXT PRIMARY KEY,
	username  TEXT NOT NULL UNIQUE,
	email     TEXT NOT NULL UNIQUE,
	pass_hash BYTEA NOT NULL,
	salt      TEXT NOT NULL,
	role      TEXT NOT NULL
);
`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, Schema)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, a Account) error {
	return kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO users (id, username, email, pass_hash, salt, role)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.ID, a.Username, a.Email, a.Hash, a.Salt, a.Role)

		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	})
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Account, bool, error) {
	var a Account
	err := kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, username, email, pass_hash, salt, role
			FROM users
			WHERE username = $1
		`, username).Scan(&a.ID, &a.Username, &a.Email, &a.Hash, &a.Salt, &a.Role)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, err
	}
	return a, true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
