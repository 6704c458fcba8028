package auth

import "context"

// Store persists accounts keyed by normalized username.
type Store interface {
	Create(ctx context.Context, a Account) error
	FindByUsername(ctx context.Context, username string) (Account, bool, error)
	Ping(ctx context.Context) error
}
