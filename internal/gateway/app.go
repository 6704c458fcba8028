package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"OrderPlus/internal/auth"
	"OrderPlus/pkg/kit"
)

type Deps struct {
	AuthURL    string
	CatalogURL string
	JWTSecret  string
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps kit.HTTPDeps) (http.Handler, error) {
	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
	}

	authProxy, err := NewReverseProxy(deps.AuthURL, log)
	if err != nil {
		return nil, fmt.Errorf("auth upstream: %w", err)
	}
	catalogProxy, err := NewReverseProxy(deps.CatalogURL, log)
	if err != nil {
		return nil, fmt.Errorf("catalog upstream: %w", err)
	}

	jwt := auth.NewTokenMaker(deps.JWTSecret)

	r := chi.NewRouter()
	kit.Instrument(r, httpDeps)

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", readyz(deps, log))

	r.Get("/", Guard(jwt, viewHome, true))
	r.Get("/signIn", Guard(jwt, viewSignIn, false))
	r.Get("/signUp", Guard(jwt, viewSignUp, false))

	r.Handle("/auth", authProxy)
	r.Handle("/auth/*", authProxy)

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(jwt))
		pr.Use(InjectHeaders)
		pr.Handle("/products", catalogProxy)
		pr.Handle("/products/*", catalogProxy)
		pr.Handle("/notifications", catalogProxy)
	})

	return r, nil
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	upstreams := []struct{ name, url string }{
		{"auth", deps.AuthURL},
		{"catalog", deps.CatalogURL},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for _, u := range upstreams {
			g.Go(func() error {
				if err := checkReady(gctx, u.url+"/readyz"); err != nil {
					log.Warn("readyz failed", zap.String("upstream", u.name), zap.Error(err))
					return fmt.Errorf("%s not ready", u.name)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			kit.WriteError(w, r, http.StatusServiceUnavailable, err.Error(), nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
