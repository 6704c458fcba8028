package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"

	"OrderPlus/pkg/kit"
)

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second
)

// Limiters throttles the credential endpoints per client IP.
type Limiters struct {
	Login    kit.Limiter
	Register kit.Limiter
}

func DefaultLimiters() Limiters {
	return Limiters{
		Login:    kit.NewIPRateLimiter(loginLimitPerMin, limitWindow),
		Register: kit.NewIPRateLimiter(registerLimitPerMin, limitWindow),
	}
}

// RedisLimiters shares the same limits across auth replicas.
func RedisLimiters(client *redis.Client) Limiters {
	return Limiters{
		Login:    kit.NewRedisRateLimiter(client, "orderplus:rl", loginLimitPerMin, limitWindow),
		Register: kit.NewRedisRateLimiter(client, "orderplus:rl", registerLimitPerMin, limitWindow),
	}
}

func NewHandler(s *Server, lim Limiters, deps kit.HTTPDeps) http.Handler {
	r := chi.NewRouter()
	kit.Instrument(r, deps)

	r.Route("/auth", func(rr chi.Router) {
		rr.With(kit.RateLimit(lim.Login, "login", deps.Log)).Post("/login", s.handleLogin)
		rr.With(kit.RateLimit(lim.Register, "register", deps.Log)).Post("/register", s.handleRegister)
		rr.Get("/whoami", s.handleWhoAmI)
	})

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", s.handleReady)

	return r
}
