package services

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
	Register(ctx context.Context, username, password string) (core.User, error)
	Login(ctx context.Context, username, password string) (core.User, error)
}

// RegisterForm is what a sign-up screen collects.
type RegisterForm struct {
	Username string
	Password string
	Confirm  string
}

// Validate checks the form without touching storage.
func (f RegisterForm) Validate() error {
	var errs core.ValidationErrors
	if err := validateUsername(f.Username); err != nil {
		errs.Add(err)
	}
	switch {
	case f.Password == "":
		errs.Add(core.NewValidationError("password", "password cannot be empty"))
	case utf8.RuneCountInString(f.Password) < core.MinPasswordLength:
		errs.Add(core.NewValidationError("password", "password too short (min 4 characters)"))
	case f.Password != f.Confirm:
		errs.Add(core.NewValidationError("confirm", "passwords do not match"))
	}
	return errs.Err()
}

type LoginForm struct {
	Username string
	Password string
}

func (f LoginForm) Validate() error {
	var errs core.ValidationErrors
	if strings.TrimSpace(f.Username) == "" {
		errs.Add(core.NewValidationError("username", "username cannot be empty"))
	}
	if f.Password == "" {
		errs.Add(core.NewValidationError("password", "password cannot be empty"))
	}
	return errs.Err()
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case strings.TrimSpace(username) == "":
		return core.NewValidationError("username", "username cannot be empty")
	case strings.IndexFunc(username, unicode.IsSpace) >= 0:
		return core.NewValidationError("username", "username cannot contain spaces")
	case n < core.MinUsernameLength || n > core.MaxUsernameLength:
		return core.NewValidationError("username", "username must be 3 to 64 characters")
	}
	return nil
}

// AuthService runs the sign-up and sign-in flows: form checks first, then
// the user repository.
type AuthService struct {
	users  UserStore
	logger *log.Logger
}

func NewAuthService(users UserStore, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuthService{
		users:  users,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

func (s *AuthService) Register(ctx context.Context, f RegisterForm) (core.User, error) {
	if err := f.Validate(); err != nil {
		s.logger.DebugContext(ctx, "Registration form rejected", log.FieldError, err)
		return core.User{}, err
	}
	return s.users.Register(ctx, f.Username, f.Password)
}

func (s *AuthService) Login(ctx context.Context, f LoginForm) (core.User, error) {
	if err := f.Validate(); err != nil {
		return core.User{}, err
	}
	u, err := s.users.Login(ctx, f.Username, f.Password)
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User logged in", log.FieldUserID, u.ID)
	return u, nil
}
