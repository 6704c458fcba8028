package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID    string          `json:"id"`
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Field names a queryable product attribute.
type Field string

const (
	FieldCode Field = "code"
	FieldName Field = "name"
)

func (f Field) valid() bool { return f == FieldCode || f == FieldName }

func (f Field) of(p Product) string {
	if f == FieldName {
		return p.Name
	}
	return p.Code
}

// Fields is the full set of writable attributes. Writes always overwrite all
// of them together.
type Fields struct {
	Code  string
	Name  string
	Price decimal.Decimal
}

// Store is the document store contract. Equality and range queries return
// results ordered by the queried field ascending; range bounds are inclusive.
// Nothing here enforces uniqueness of code or name.
type Store interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, f Fields) (Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	Update(ctx context.Context, id string, f Fields) error
	FindEqual(ctx context.Context, field Field, value string) ([]Product, error)
	FindRange(ctx context.Context, field Field, lo, hi string) ([]Product, error)
	ListOrderedBy(ctx context.Context, field Field) ([]Product, error)
}

func newID() string {
	return "p_" + uuid.NewString()
}

func errUnknownField(f Field) error {
	return fmt.Errorf("unknown product field %q", f)
}
