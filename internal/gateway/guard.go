package gateway

import (
	"net/http"

	"OrderPlus/internal/auth"
	"OrderPlus/pkg/kit"
)

const (
	viewHome   = "home"
	viewSignIn = "signIn"
	viewSignUp = "signUp"
)

type viewResp struct {
	View     string `json:"view"`
	Username string `json:"username,omitempty"`
}

// sessionToken prefers the Authorization header and falls back to the
// session cookie.
func sessionToken(r *http.Request) (string, bool) {
	if tok, ok := kit.BearerToken(r); ok {
		return tok, true
	}
	if c, err := r.Cookie(auth.SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// Guard serves a view route: signed-out users are sent to sign in from
// protected views, signed-in users are sent home from the sign-in and
// sign-up views.
func Guard(jwt *auth.TokenMaker, view string, protected bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			claims   auth.Claims
			signedIn bool
		)
		if tok, ok := sessionToken(r); ok {
			c, err := jwt.Parse(tok)
			claims, signedIn = c, err == nil
		}

		switch {
		case protected && !signedIn:
			http.Redirect(w, r, "/signIn", http.StatusSeeOther)
			return
		case !protected && signedIn:
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		kit.WriteJSON(w, http.StatusOK, viewResp{View: view, Username: claims.Username})
	}
}
