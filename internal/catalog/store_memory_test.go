package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMem(t *testing.T, items ...[2]string) (*MemStore, []Product) {
	t.Helper()
	s := NewMemStore()
	out := make([]Product, 0, len(items))
	for _, it := range items {
		p, err := s.Insert(context.Background(), Fields{Code: it[0], Name: it[1], Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
		out = append(out, p)
	}
	return s, out
}

func codes(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Code
	}
	return out
}

func TestMemStore_InsertAssignsIDs(t *testing.T) {
	_, ps := seedMem(t, [2]string{"a1", "widget"}, [2]string{"a2", "gadget"})
	require.Len(t, ps, 2)
	assert.NotEmpty(t, ps[0].ID)
	assert.NotEqual(t, ps[0].ID, ps[1].ID)
}

func TestMemStore_Ordering(t *testing.T) {
	s, _ := seedMem(t, [2]string{"c", "x"}, [2]string{"a", "z"}, [2]string{"b", "y"})

	got, err := s.ListOrderedBy(context.Background(), FieldCode)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, codes(got))

	got, err = s.ListOrderedBy(context.Background(), FieldName)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, codes(got))
}

func TestMemStore_FindRangeInclusive(t *testing.T) {
	s, _ := seedMem(t,
		[2]string{"ax", "n1"},
		[2]string{"ax1", "n2"},
		[2]string{"axé", "n3"},
		[2]string{"ay", "n4"},
		[2]string{"aw", "n5"},
	)

	got, err := s.FindRange(context.Background(), FieldCode, "ax", "ax"+highSentinel)
	require.NoError(t, err)
	assert.Equal(t, []string{"ax", "ax1", "axé"}, codes(got))
}

func TestMemStore_FindEqualAndUpdate(t *testing.T) {
	s, ps := seedMem(t, [2]string{"a1", "widget"})
	ctx := context.Background()

	got, err := s.FindEqual(ctx, FieldName, "widget")
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, s.Update(ctx, ps[0].ID, Fields{Code: "a9", Name: "widget", Price: decimal.NewFromInt(2)}))
	p, ok, err := s.Get(ctx, ps[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a9", p.Code)

	assert.ErrorIs(t, s.Update(ctx, "missing", Fields{}), ErrNotFound)
}

func TestMemStore_UnknownField(t *testing.T) {
	s := NewMemStore()
	_, err := s.FindEqual(context.Background(), Field("price"), "1")
	assert.Error(t, err)
}
