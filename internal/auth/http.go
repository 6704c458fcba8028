package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"OrderPlus/pkg/kit"
)

// User-facing sign-in/sign-up messages.
const (
	msgUserNotFound = "User not found. Please check your username or sign up for a new account."
	msgWrongPass    = "Incorrect password. Please try again."
	msgTaken        = "The provided username is already in use by another account."
	msgUnexpected   = "An unexpected error occurred. Please try again later."
)

type Server struct {
	Log   *zap.Logger
	Store Store
	JWT   *TokenMaker
}

type registerReq struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResp struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	username, err := ValidateSignUp(req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		var ve ValidationErrors
		errors.As(err, &ve)
		kit.WriteError(w, r, http.StatusBadRequest, "invalid sign-up", ve)
		return
	}

	a, err := NewAccount(username, req.Password)
	if err != nil {
		s.logger().Error("account create", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, msgUnexpected, nil)
		return
	}

	if err := s.Store.Create(r.Context(), a); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			kit.WriteError(w, r, http.StatusConflict, msgTaken, nil)
			return
		}
		s.logger().Error("account store", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, msgUnexpected, nil)
		return
	}

	s.issue(w, r, http.StatusCreated, a)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if NormalizeUsername(req.Username) == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	a, err := Authenticate(r.Context(), s.Store, req.Username, req.Password)
	switch {
	case errors.Is(err, ErrUserNotFound):
		kit.WriteError(w, r, http.StatusUnauthorized, msgUserNotFound, nil)
		return
	case errors.Is(err, ErrWrongPassword):
		kit.WriteError(w, r, http.StatusUnauthorized, msgWrongPass, nil)
		return
	case err != nil:
		s.logger().Error("sign-in", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, msgUnexpected, nil)
		return
	}

	s.issue(w, r, http.StatusOK, a)
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, a Account) {
	tok, err := s.JWT.New(a, SessionTTL)
	if err != nil {
		s.logger().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, msgUnexpected, nil)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	kit.WriteJSON(w, status, sessionResp{AccessToken: tok, UserID: a.ID, Username: a.Username})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	tok, ok := kit.BearerToken(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	claims, err := s.JWT.Parse(tok)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"email":    EmailFor(claims.Username),
		"role":     claims.Role,
	})
}
