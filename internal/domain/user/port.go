package user

import "context"

// Repo is the credential store. Email uniqueness is enforced by the store:
// Create returns ErrEmailAlreadyExists on a duplicate, lookups return ErrUserNotFound.
type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdateProfile writes the mutable profile fields (first and last name) only.
	UpdateProfile(ctx context.Context, u *User) error
	UpdateRole(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
