package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 6
	maxUsernameLen = 20
	minPasswordLen = 8
	maxPasswordLen = 20
	saltBytes      = 16

	emailDomain = "example.com"
	roleUser    = "user"
)

var (
	ErrUsernameTaken = errors.New("username already in use")
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type Account struct {
	ID       string
	Username string
	Email    string
	Hash     []byte
	Salt     string
	Role     string
}

// ValidationErrors maps a sign-up field to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string { return "invalid sign-up" }

// ValidateSignUp checks the sign-up form and returns the normalized username.
func ValidateSignUp(username, password, confirm string) (string, error) {
	username = NormalizeUsername(username)
	errs := ValidationErrors{}

	switch {
	case username == "":
		errs["username"] = "Username is required"
	case !usernamePattern.MatchString(username):
		errs["username"] = "Invalid username format (only alphanumeric characters, underscores, and hyphens are allowed)"
	case len(username) < minUsernameLen || len(username) > maxUsernameLen:
		errs["username"] = "Username must be between 6 and 20 characters"
	}

	switch {
	case password == "":
		errs["password"] = "Password is required"
	case len(password) < minPasswordLen || len(password) > maxPasswordLen:
		errs["password"] = "Password must be between 8 and 20 characters"
	}

	if confirm == "" {
		errs["confirm_password"] = "Confirm password is required"
	} else if password != "" && confirm != password {
		errs["confirm_password"] = "Passwords do not match"
	}

	if len(errs) > 0 {
		return "", errs
	}
	return username, nil
}

// NormalizeUsername folds case so that one synthetic email maps to one
// account.
func NormalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func EmailFor(username string) string {
	return username + "@" + emailDomain
}

// NewAccount derives a fresh per-account salt and hashes password+salt.
func NewAccount(username, password string) (Account, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return Account{}, err
	}
	salt := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	return Account{
		ID:       "u_" + uuid.NewString(),
		Username: username,
		Email:    EmailFor(username),
		Hash:     hash,
		Salt:     salt,
		Role:     roleUser,
	}, nil
}

func (a Account) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword(a.Hash, []byte(password+a.Salt)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Authenticate looks the user up and verifies the password.
func Authenticate(ctx context.Context, store Store, username, password string) (Account, error) {
	a, ok, err := store.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrUserNotFound
	}
	if err := a.CheckPassword(password); err != nil {
		return Account{}, err
	}
	return a, nil
}
