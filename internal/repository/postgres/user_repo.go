package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, first_name, last_name, role, COALESCE(external_id, ''), created_at, updated_at`

const (
	qUserInsert = `
INSERT INTO users (id, email, password_hash, first_name, last_name, role, external_id)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
RETURNING ` + userColumns + `;`

	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1;`

	qUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1;`

	qUserUpdateProfile = `
UPDATE users
SET first_name = $2,
    last_name  = $3,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`

	qUserUpdateRole = `
UPDATE users
SET role       = $2,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`

	qUserDelete = `DELETE FROM users WHERE id = $1;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.ExternalID)
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if !validID(id) {
		return nil, user.ErrUserNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u *user.User) error {
	if !validID(u.ID) {
		return user.ErrUserNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserUpdateProfile, u.ID, u.FirstName, u.LastName)
	if err := scanUser(row, u); err != nil {
		return fmt.Errorf("user update profile: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, u *user.User) error {
	if !validID(u.ID) {
		return user.ErrUserNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserUpdateRole, u.ID, string(u.Role))
	if err := scanUser(row, u); err != nil {
		return fmt.Errorf("user update role: %w", err)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrUserNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qUserDelete, id)
	if err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row, out *user.User) error {
	var role string
	err := row.Scan(&out.ID, &out.Email, &out.PasswordHash, &out.FirstName, &out.LastName,
		&role, &out.ExternalID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrUserNotFound
		}
		return err
	}
	out.Role = user.Role(role)
	return nil
}
