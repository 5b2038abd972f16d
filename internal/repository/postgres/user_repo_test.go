package postgres

import (
	"context"
	"testing"

	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	assert.True(t, validID(uuid.NewString()))
	for _, id := range []string{"", "abc", "12345", "not-a-uuid-at-all"} {
		assert.False(t, validID(id), id)
	}
}

// A malformed id never reaches the pool, so a repo without one is enough here.
func TestUserRepo_MalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(nil)

	u, err := r.GetByID(ctx, "abc")
	require.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Nil(t, u)

	assert.ErrorIs(t, r.UpdateProfile(ctx, &user.User{ID: "abc"}), user.ErrUserNotFound)
	assert.ErrorIs(t, r.UpdateRole(ctx, &user.User{ID: "abc", Role: user.RoleAdmin}), user.ErrUserNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "abc"), user.ErrUserNotFound)
}
