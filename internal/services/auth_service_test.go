package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

type fakeUsers struct {
	registered []string
	logins     int
}

func (f *fakeUsers) Register(_ context.Context, username, _ string) (core.User, error) {
	f.registered = append(f.registered, username)
	return core.User{ID: int64(len(f.registered)), Username: username}, nil
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (core.User, error) {
	f.logins++
	if password != "secret" {
		return core.User{}, core.ErrInvalidCredentials
	}
	return core.User{ID: 1, Username: username}, nil
}

func TestRegisterForm_Validate(t *testing.T) {
	tests := []struct {
		name  string
		form  RegisterForm
		field string
	}{
		{"valid", RegisterForm{"alice", "secret", "secret"}, ""},
		{"empty username", RegisterForm{"", "secret", "secret"}, "username"},
		{"username with space", RegisterForm{"al ice", "secret", "secret"}, "username"},
		{"username too short", RegisterForm{"al", "secret", "secret"}, "username"},
		{"username too long", RegisterForm{strings.Repeat("a", 65), "secret", "secret"}, "username"},
		{"empty password", RegisterForm{"alice", "", ""}, "password"},
		{"short password", RegisterForm{"alice", "abc", "abc"}, "password"},
		{"mismatch", RegisterForm{"alice", "secret", "secreT"}, "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthService_RegisterValidatesBeforeStorage(t *testing.T) {
	users := &fakeUsers{}
	svc := NewAuthService(users, log.Discard())

	_, err := svc.Register(context.Background(), RegisterForm{Username: "", Password: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, users.registered)

	u, err := svc.Register(context.Background(), RegisterForm{"alice", "secret", "secret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, []string{"alice"}, users.registered)
}

func TestAuthService_Login(t *testing.T) {
	users := &fakeUsers{}
	svc := NewAuthService(users, log.Discard())

	_, err := svc.Login(context.Background(), LoginForm{Username: "alice"})
	assert.Equal(t, core.KindInvalidInput, core.KindOf(err))
	assert.Zero(t, users.logins, "empty fields never reach storage")

	_, err = svc.Login(context.Background(), LoginForm{"alice", "wrong"})
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	u, err := svc.Login(context.Background(), LoginForm{"alice", "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}
