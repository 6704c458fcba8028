// Package notify delivers short user-facing messages (the toasts shown after
// a product write) to a per-user feed.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

const (
	DefaultDuration = 5 * time.Second
	FeedCap         = 50
	anonymous       = "anonymous"
)

type Notification struct {
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

func Success(msg string) Notification { return newNotification(SeveritySuccess, msg) }
func Error(msg string) Notification   { return newNotification(SeverityError, msg) }

func newNotification(sev Severity, msg string) Notification {
	return Notification{
		Severity:   sev,
		Message:    msg,
		DurationMS: DefaultDuration.Milliseconds(),
		At:         time.Now().UTC(),
	}
}

// Sink accepts notifications without acknowledging them. Delivery failures
// are the sink's problem, never the caller's.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// Feed returns the most recent notifications for one recipient, newest first.
type Feed interface {
	Recent(ctx context.Context, recipient string, limit int) ([]Notification, error)
}

type ctxKey struct{}

// WithRecipient tags ctx with the user notifications should go to.
func WithRecipient(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RecipientFrom(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return anonymous
}

// MemFeed keeps a capped in-process feed per recipient.
type MemFeed struct {
	mu sync.Mutex
	m  map[string][]Notification
}

func NewMemFeed() *MemFeed {
	return &MemFeed{m: make(map[string][]Notification)}
}

func (f *MemFeed) Notify(ctx context.Context, n Notification) {
	who := RecipientFrom(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	list := append([]Notification{n}, f.m[who]...)
	if len(list) > FeedCap {
		list = list[:FeedCap]
	}
	f.m[who] = list
}

func (f *MemFeed) Recent(_ context.Context, recipient string, limit int) ([]Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.m[recipient]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Notification, limit)
	copy(out, list[:limit])
	return out, nil
}

// Logged mirrors every notification into the service log before passing it on.
func Logged(next Sink, log *zap.Logger) Sink {
	return &loggedSink{next: next, log: log}
}

type loggedSink struct {
	next Sink
	log  *zap.Logger
}

func (s *loggedSink) Notify(ctx context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("recipient", RecipientFrom(ctx)),
		zap.String("severity", string(n.Severity)),
		zap.String("message", n.Message),
	}
	if n.Severity == SeverityError {
		s.log.Warn("notification", fields...)
	} else {
		s.log.Info("notification", fields...)
	}
	s.next.Notify(ctx, n)
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Notify(context.Context, Notification) {}
