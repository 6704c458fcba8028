// Package catalog owns the product collection: listing, prefix search, and
// writes that keep code and name unique across products.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"OrderPlus/internal/notify"
)

// highSentinel is the largest code point. Every string that starts with term
// sorts between term and term+highSentinel.
const highSentinel = "\U0010FFFF"

// Catalog runs product operations against a Store and reports each write's
// outcome to a notification sink. It holds no product state of its own.
type Catalog struct {
	store   Store
	sink    notify.Sink
	log     *zap.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

type Option func(*Catalog)

// WithMetrics records write outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

func New(store Store, sink notify.Sink, log *zap.Logger, opts ...Option) *Catalog {
	if sink == nil {
		sink = notify.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Catalog{
		store:  store,
		sink:   sink,
		log:    log,
		tracer: otel.Tracer("OrderPlus/internal/catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View is a point-in-time read of the collection, owned by the caller.
type View struct {
	Term      string    `json:"term,omitempty"`
	Products  []Product `json:"products"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (c *Catalog) Ping(ctx context.Context) error { return c.store.Ping(ctx) }

// List returns every product ordered by code.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.List")
	defer span.End()

	out, err := c.store.ListOrderedBy(ctx, FieldCode)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Search returns products whose name or code starts with term: name matches
// first, then code matches whose code is not already present.
func (c *Catalog) Search(ctx context.Context, term string) ([]Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Search", trace.WithAttributes(attribute.String("term", term)))
	defer span.End()

	var byName, byCode []Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byName, err = c.store.FindRange(gctx, FieldName, term, term+highSentinel)
		return err
	})
	g.Go(func() (err error) {
		byCode, err = c.store.FindRange(gctx, FieldCode, term, term+highSentinel)
		return err
	})
	if err := g.Wait(); err != nil {
		fail(span, err)
		return nil, fmt.Errorf("search products %q: %w", term, err)
	}

	return mergeByCode(byName, byCode), nil
}

func mergeByCode(first, second []Product) []Product {
	out := make([]Product, 0, len(first)+len(second))
	seen := make(map[string]struct{}, len(first)+len(second))
	for _, list := range [][]Product{first, second} {
		for _, p := range list {
			if _, dup := seen[p.Code]; dup {
				continue
			}
			seen[p.Code] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Browse builds a fresh View. A blank term means no filter.
func (c *Catalog) Browse(ctx context.Context, term string) (View, error) {
	term = normalize(term)

	var (
		products []Product
		err      error
	)
	if term == "" {
		products, err = c.List(ctx)
	} else {
		products, err = c.Search(ctx, term)
	}
	if err != nil {
		return View{}, err
	}
	return View{Term: term, Products: products, FetchedAt: time.Now().UTC()}, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (Product, error) {
	p, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Create inserts d unless another product already has its code or name.
func (c *Catalog) Create(ctx context.Context, d Draft) (Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Create",
		trace.WithAttributes(attribute.String("product.code", d.Code)))
	defer span.End()

	codeTaken, nameTaken, err := c.holders(ctx, d, "")
	if err != nil {
		return Product{}, c.backendFailure(ctx, span, opCreate, "Error creating product", fmt.Errorf("create product: %w", err))
	}

	var conflict *ConflictError
	switch {
	case codeTaken:
		conflict = &ConflictError{Field: FieldCode, Value: d.Code}
	case nameTaken:
		conflict = &ConflictError{Field: FieldName, Value: d.Name}
	}
	if conflict != nil {
		return Product{}, c.refuse(ctx, span, opCreate, conflict)
	}

	p, err := c.store.Insert(ctx, d.fields())
	if err != nil {
		return Product{}, c.backendFailure(ctx, span, opCreate, "Error creating product", fmt.Errorf("create product: %w", err))
	}

	c.metrics.observe(opCreate, outcomeApplied)
	c.sink.Notify(ctx, notify.Success(fmt.Sprintf("Product %q created.", p.Name)))
	return p, nil
}

// Update overwrites product id with d when Resolve allows it. The holder
// lookups are snapshot reads taken before the write; two racing updates can
// still both pass them.
func (c *Catalog) Update(ctx context.Context, id string, d Draft) (Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Update",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	current, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return Product{}, c.backendFailure(ctx, span, opUpdate, "Error editing product", fmt.Errorf("update product %s: %w", id, err))
	}
	if !ok {
		return Product{}, c.notFound(ctx, span, id)
	}

	codeTaken, nameTaken, err := c.holders(ctx, d, id)
	if err != nil {
		return Product{}, c.backendFailure(ctx, span, opUpdate, "Error editing product", fmt.Errorf("update product %s: %w", id, err))
	}

	v := Resolve(current, d, codeTaken, nameTaken)
	span.SetAttributes(attribute.String("product.change", v.Change.String()))
	if !v.Allowed() {
		return Product{}, c.refuse(ctx, span, opUpdate, v.Conflict)
	}

	if err := c.store.Update(ctx, id, d.fields()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, c.notFound(ctx, span, id)
		}
		return Product{}, c.backendFailure(ctx, span, opUpdate, "Error editing product", fmt.Errorf("update product %s: %w", id, err))
	}

	c.metrics.observe(opUpdate, outcomeApplied)
	c.sink.Notify(ctx, notify.Success(fmt.Sprintf("Product %q updated.", d.Name)))
	return Product{ID: id, Code: d.Code, Name: d.Name, Price: d.Price}, nil
}

// holders runs the code and name lookups concurrently and reports whether
// any product other than self holds d's code or name.
func (c *Catalog) holders(ctx context.Context, d Draft, self string) (codeTaken, nameTaken bool, err error) {
	var byCode, byName []Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byCode, err = c.store.FindEqual(gctx, FieldCode, d.Code)
		return err
	})
	g.Go(func() (err error) {
		byName, err = c.store.FindEqual(gctx, FieldName, d.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, false, err
	}

	return anyOther(byCode, self), anyOther(byName, self), nil
}

func anyOther(ps []Product, self string) bool {
	for _, p := range ps {
		if p.ID != self {
			return true
		}
	}
	return false
}

func (c *Catalog) refuse(ctx context.Context, span trace.Span, op string, conflict *ConflictError) error {
	span.SetAttributes(attribute.String("product.conflict", string(conflict.Field)))
	c.metrics.observe(op, outcomeConflict)
	c.sink.Notify(ctx, notify.Error(conflict.Message()))
	return conflict
}

func (c *Catalog) notFound(ctx context.Context, span trace.Span, id string) error {
	span.SetAttributes(attribute.Bool("product.missing", true))
	c.metrics.observe(opUpdate, outcomeNotFound)
	c.sink.Notify(ctx, notify.Error(fmt.Sprintf("Product %q not found.", id)))
	return ErrNotFound
}

func (c *Catalog) backendFailure(ctx context.Context, span trace.Span, op, msg string, err error) error {
	fail(span, err)
	c.log.Error("product write failed", zap.String("op", op), zap.Error(err))
	c.metrics.observe(op, outcomeError)
	c.sink.Notify(ctx, notify.Error(msg))
	return err
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}
