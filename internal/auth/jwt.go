package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionTTL = 1 * time.Hour

// SessionCookie carries the access token for browser navigation.
const SessionCookie = "session"

var ErrInvalidToken = errors.New("invalid token")

type TokenMaker struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "orderplus-auth",
		now:    time.Now,
	}
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) New(a Account, ttl time.Duration) (string, error) {
	now := t.now()

	claims := Claims{
		UserID:   a.ID,
		Username: a.Username,
		Role:     a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid || c.UserID == "" {
		return Claims{}, ErrInvalidToken
	}

	return c, nil
}
