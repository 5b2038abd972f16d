package idp

import (
	"context"
	"errors"
)

var (
	ErrAccountExists      = errors.New("identity provider: account already exists")
	ErrInvalidCredentials = errors.New("identity provider: invalid credentials")
	ErrAccountNotFound    = errors.New("identity provider: account not found")
	// ErrUnavailable marks transport failures and 5xx answers; callers may retry.
	ErrUnavailable = errors.New("identity provider: unavailable")
)

type Account struct {
	Subject string
	Email   string
}

// Provider is an external identity provider holding the password of hybrid-mode accounts.
type Provider interface {
	Name() string
	SignUp(ctx context.Context, email, password string, meta map[string]string) (*Account, error)
	SignIn(ctx context.Context, email, password string) (*Account, error)
	DeleteUser(ctx context.Context, subject string) error
}
