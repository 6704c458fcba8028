package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"OrderPlus/pkg/kit"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// Schema creates the products table. code and name deliberately carry no
// unique index; uniqueness is the application's job.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id    TEXT PRIMARY KEY,
	code  TEXT NOT NULL,
	name  TEXT NOT NULL,
	price NUMERIC(14, 2) NOT NULL CHECK (price >= 0)
);
CREATE INDEX IF NOT EXISTS products_code_idx ON products (code COLLATE "C");
CREATE INDEX IF NOT EXISTS products_name_idx ON products (name COLLATE "C");
`

// Queries per field. Comparisons use the "C" collation so range scans follow
// code point order like the in-memory store.
var fieldQueries = map[Field]struct{ equal, rng, list string }{
	FieldCode: {
		equal: `SELECT id, code, name, price FROM products WHERE code = $1 ORDER BY code COLLATE "C", id`,
		rng:   `SELECT id, code, name, price FROM products WHERE code COLLATE "C" >= $1 AND code COLLATE "C" <= $2 ORDER BY code COLLATE "C", id`,
		list:  `SELECT id, code, name, price FROM products ORDER BY code COLLATE "C", id`,
	},
	FieldName: {
		equal: `SELECT id, code, name, price FROM products WHERE name = $1 ORDER BY name COLLATE "C", id`,
		rng:   `SELECT id, code, name, price FROM products WHERE name COLLATE "C" >= $1 AND name COLLATE "C" <= $2 ORDER BY name COLLATE "C", id`,
		list:  `SELECT id, code, name, price FROM products ORDER BY name COLLATE "C", id`,
	},
}

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

func (s *PostgresStore) Insert(ctx context.Context, f Fields) (Product, error) {
	p := Product{ID: newID(), Code: f.Code, Name: f.Name, Price: f.Price}

	err := kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (id, code, name, price)
			VALUES ($1, $2, $3, $4)
		`, p.ID, p.Code, p.Name, p.Price)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, bool, error) {
	var p Product

	err := kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, code, name, price
			FROM products
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Code, &p.Name, &p.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, f Fields) error {
	return kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE products
			SET code = $2, name = $3, price = $4
			WHERE id = $1
		`, id, f.Code, f.Name, f.Price)
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
	})
}

func (s *PostgresStore) FindEqual(ctx context.Context, field Field, value string) ([]Product, error) {
	q, ok := fieldQueries[field]
	if !ok {
		return nil, errUnknownField(field)
	}
	return s.query(ctx, q.equal, value)
}

func (s *PostgresStore) FindRange(ctx context.Context, field Field, lo, hi string) ([]Product, error) {
	q, ok := fieldQueries[field]
	if !ok {
		return nil, errUnknownField(field)
	}
	return s.query(ctx, q.rng, lo, hi)
}

func (s *PostgresStore) ListOrderedBy(ctx context.Context, field Field) ([]Product, error) {
	q, ok := fieldQueries[field]
	if !ok {
		return nil, errUnknownField(field)
	}
	return s.query(ctx, q.list)
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Product, error) {
	var out []Product

	err := kit.WithTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Price); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
