package gateway_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"OrderPlus/internal/auth"
	"OrderPlus/internal/catalog"
	"OrderPlus/internal/gateway"
	"OrderPlus/internal/notify"
	"OrderPlus/pkg/kit"
)

const jwtSecret = "0123456789abcdef0123456789abcdef"

type stack struct {
	gw      *httptest.Server
	catalog *httptest.Server
}

func newStack(t *testing.T) stack {
	t.Helper()

	as := &auth.Server{Log: zap.NewNop(), Store: auth.NewMemStore(), JWT: auth.NewTokenMaker(jwtSecret)}
	authTS := httptest.NewServer(auth.NewHandler(as, auth.DefaultLimiters(), kit.HTTPDeps{Log: zap.NewNop(), Service: "auth"}))
	t.Cleanup(authTS.Close)

	feed := notify.NewMemFeed()
	cs := &catalog.Server{Catalog: catalog.New(catalog.NewMemStore(), feed, zap.NewNop()), Feed: feed, Log: zap.NewNop()}
	catalogTS := httptest.NewServer(catalog.NewHandler(cs, kit.HTTPDeps{Log: zap.NewNop(), Service: "catalog"}))
	t.Cleanup(catalogTS.Close)

	h, err := gateway.NewHandler(gateway.Deps{
		JWTSecret:  jwtSecret,
		AuthURL:    authTS.URL,
		CatalogURL: catalogTS.URL,
	}, kit.HTTPDeps{Log: zap.NewNop(), Service: "gateway"})
	require.NoError(t, err)

	gwTS := httptest.NewServer(h)
	t.Cleanup(gwTS.Close)

	return stack{gw: gwTS, catalog: catalogTS}
}

var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func signUp(t *testing.T, base, username string) string {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, base+"/auth/register", map[string]string{
		"username":         username,
		"password":         "password123",
		"confirm_password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestGateway_PublicAPI_HappyPath(t *testing.T) {
	s := newStack(t)
	signUp(t, s.gw.URL, "shopper1")

	resp, raw := doJSON(t, http.MethodPost, s.gw.URL+"/auth/login", map[string]string{
		"username": "shopper1",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(raw, &login))
	bearer := map[string]string{"Authorization": "Bearer " + login.AccessToken}

	resp, raw = doJSON(t, http.MethodPost, s.gw.URL+"/products", map[string]any{
		"code": "A1", "name": "Widget", "price": "9.99",
	}, bearer)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created struct {
		Product catalog.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "a1", created.Product.Code)
	assert.Equal(t, "widget", created.Product.Name)

	resp, raw = doJSON(t, http.MethodPost, s.gw.URL+"/products", map[string]any{
		"code": "a1", "name": "gadget", "price": "1",
	}, bearer)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodPut, s.gw.URL+"/products/"+created.Product.ID, map[string]any{
		"code": "a1", "name": "widget", "price": "12.50",
	}, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodGet, s.gw.URL+"/products?q=wid", nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var view catalog.View
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Len(t, view.Products, 1)
	assert.Equal(t, "12.5", view.Products[0].Price.String())

	resp, raw = doJSON(t, http.MethodGet, s.gw.URL+"/notifications", nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var notes []notify.Notification
	require.NoError(t, json.Unmarshal(raw, &notes))
	require.Len(t, notes, 3)
	assert.Equal(t, notify.SeveritySuccess, notes[0].Severity)
	assert.Equal(t, notify.SeverityError, notes[1].Severity)
}

func TestGateway_ProductsRequireAuth(t *testing.T) {
	s := newStack(t)

	resp, _ := doJSON(t, http.MethodGet, s.gw.URL+"/products", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, s.gw.URL+"/products", nil, map[string]string{
		"Authorization": "Bearer forged",
		"X-User-Id":     "u_admin",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateway_IdentityHeadersAreOverwritten(t *testing.T) {
	s := newStack(t)
	tok := signUp(t, s.gw.URL, "shopper2")

	resp, raw := doJSON(t, http.MethodPost, s.gw.URL+"/products", map[string]any{
		"code": "b1", "name": "bolt", "price": 2,
	}, map[string]string{
		"Authorization":        "Bearer " + tok,
		catalog.HeaderUserID:   "u_someone_else",
		catalog.HeaderUsername: "someone",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	// The forged recipient never received the notification.
	resp, raw = doJSON(t, http.MethodGet, s.catalog.URL+"/notifications", nil, map[string]string{
		catalog.HeaderUserID: "u_someone_else",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw))
}

func TestGateway_SessionGuard(t *testing.T) {
	s := newStack(t)
	tok := signUp(t, s.gw.URL, "shopper3")

	tests := []struct {
		name     string
		path     string
		headers  map[string]string
		status   int
		location string
		view     string
	}{
		{name: "home signed out", path: "/", status: http.StatusSeeOther, location: "/signIn"},
		{name: "home signed in", path: "/", headers: map[string]string{"Authorization": "Bearer " + tok}, status: http.StatusOK, view: "home"},
		{name: "home via cookie", path: "/", headers: map[string]string{"Cookie": auth.SessionCookie + "=" + tok}, status: http.StatusOK, view: "home"},
		{name: "home bad token", path: "/", headers: map[string]string{"Authorization": "Bearer junk"}, status: http.StatusSeeOther, location: "/signIn"},
		{name: "sign in signed out", path: "/signIn", status: http.StatusOK, view: "signIn"},
		{name: "sign in signed in", path: "/signIn", headers: map[string]string{"Authorization": "Bearer " + tok}, status: http.StatusSeeOther, location: "/"},
		{name: "sign up signed out", path: "/signUp", status: http.StatusOK, view: "signUp"},
		{name: "sign up signed in", path: "/signUp", headers: map[string]string{"Authorization": "Bearer " + tok}, status: http.StatusSeeOther, location: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, http.MethodGet, s.gw.URL+tt.path, nil, tt.headers)
			require.Equal(t, tt.status, resp.StatusCode, string(raw))
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get("Location"))
				return
			}

			var v struct {
				View string `json:"view"`
			}
			require.NoError(t, json.Unmarshal(raw, &v))
			assert.Equal(t, tt.view, v.View)
		})
	}
}

func TestGateway_Readyz(t *testing.T) {
	s := newStack(t)

	resp, _ := doJSON(t, http.MethodGet, s.gw.URL+"/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.catalog.Close()
	resp, raw := doJSON(t, http.MethodGet, s.gw.URL+"/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(raw), "catalog not ready")
}

func TestGateway_LoginLimitIgnoresForwardedFor(t *testing.T) {
	s := newStack(t)

	var statuses []int
	for i := 0; i < 8; i++ {
		resp, _ := doJSON(t, http.MethodPost, s.gw.URL+"/auth/login", map[string]string{
			"username": "nobody1",
			"password": "password123",
		}, map[string]string{"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i+1)})
		statuses = append(statuses, resp.StatusCode)
	}

	for i, code := range statuses {
		if i < 5 {
			assert.Equal(t, http.StatusUnauthorized, code, "attempt %d", i+1)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, code, "attempt %d", i+1)
	}
}

func TestGateway_SessionCookieDrivesGuard(t *testing.T) {
	s := newStack(t)
	signUp(t, s.gw.URL, "shopper4")

	resp, raw := doJSON(t, http.MethodPost, s.gw.URL+"/auth/login", map[string]string{
		"username": "shopper4",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session, "login must set the session cookie")
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, int(auth.SessionTTL/time.Second), session.MaxAge)

	cookie := map[string]string{"Cookie": session.Name + "=" + session.Value}

	resp, _ = doJSON(t, http.MethodGet, s.gw.URL+"/signIn", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, raw = doJSON(t, http.MethodGet, s.gw.URL+"/", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.JSONEq(t, `{"view":"home","username":"shopper4"}`, string(raw))
}
