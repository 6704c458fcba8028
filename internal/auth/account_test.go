package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignUp(t *testing.T) {
	tests := []struct {
		name               string
		user, pass, repeat string
		want               string
		fields             []string
	}{
		{name: "ok", user: "  Alice_01 ", pass: "password1", repeat: "password1", want: "alice_01"},
		{name: "missing all", fields: []string{"username", "password", "confirm_password"}},
		{name: "short username", user: "bob", pass: "password1", repeat: "password1", fields: []string{"username"}},
		{name: "long username", user: strings.Repeat("a", 21), pass: "password1", repeat: "password1", fields: []string{"username"}},
		{name: "bad chars", user: "alice.smith", pass: "password1", repeat: "password1", fields: []string{"username"}},
		{name: "short password", user: "alice01", pass: "short", repeat: "short", fields: []string{"password"}},
		{name: "long password", user: "alice01", pass: strings.Repeat("p", 21), repeat: strings.Repeat("p", 21), fields: []string{"password"}},
		{name: "mismatch", user: "alice01", pass: "password1", repeat: "password2", fields: []string{"confirm_password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSignUp(tt.user, tt.pass, tt.repeat)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			var ve ValidationErrors
			require.True(t, errors.As(err, &ve))
			assert.Len(t, ve, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, ve, f)
			}
		})
	}
}

func TestNewAccount_SaltedHash(t *testing.T) {
	a, err := NewAccount("alice01", "password1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ID, "u_"))
	assert.Equal(t, "alice01@example.com", a.Email)
	assert.Equal(t, roleUser, a.Role)
	assert.Len(t, a.Salt, 2*saltBytes)

	assert.NoError(t, a.CheckPassword("password1"))
	assert.ErrorIs(t, a.CheckPassword("password2"), ErrWrongPassword)

	b, err := NewAccount("alice02", "password1")
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore()

	a, err := NewAccount("alice01", "password1")
	require.NoError(t, err)
	require.NoError(t, st.Create(ctx, a))
	assert.ErrorIs(t, st.Create(ctx, a), ErrUsernameTaken)

	got, err := Authenticate(ctx, st, "ALICE01", "password1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = Authenticate(ctx, st, "nobody1", "password1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = Authenticate(ctx, st, "alice01", "wrongpass")
	assert.ErrorIs(t, err, ErrWrongPassword)
}
