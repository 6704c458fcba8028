package catalog

import (
	"context"
	"net/http"

	"OrderPlus/internal/notify"
	"OrderPlus/pkg/kit"
)

// Headers set by the gateway after it has verified the session token.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUsername = "X-Username"
)

type ctxKey string

const userKey ctxKey = "user"

type User struct {
	ID       string
	Username string
}

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// RequireUser admits only requests the gateway has tagged with a user and
// routes that user's notifications to their feed.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		if id == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
			return
		}

		u := User{ID: id, Username: r.Header.Get(HeaderUsername)}
		ctx := context.WithValue(r.Context(), userKey, u)
		ctx = notify.WithRecipient(ctx, u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
