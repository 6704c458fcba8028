package gateway

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"OrderPlus/internal/auth"
	"OrderPlus/internal/catalog"
	"OrderPlus/pkg/kit"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

// AuthJWT rejects requests without a valid bearer token and stores the
// token's claims on the request context.
func AuthJWT(jwt *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}
			claims, err := jwt.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectHeaders replaces any client-supplied identity headers with the
// verified ones.
func InjectHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(catalog.HeaderUserID)
		r.Header.Del(catalog.HeaderUsername)

		if c, ok := ClaimsFromContext(r.Context()); ok {
			r.Header.Set(catalog.HeaderUserID, c.UserID)
			r.Header.Set(catalog.HeaderUsername, c.Username)
		}

		next.ServeHTTP(w, r)
	})
}

func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	// X-Forwarded-* is rebuilt from the connection; client values are dropped.
	p := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
	}
	return p, nil
}
