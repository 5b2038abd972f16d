package account

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	domainoutbox "github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/obs/retry"
	"github.com/I-Yanis-I/museum-app/internal/repository/memory"
	"github.com/I-Yanis-I/museum-app/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	deleteUser func(ctx context.Context, subject string) error
	calls      int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) SignUp(context.Context, string, string, map[string]string) (*idp.Account, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) SignIn(context.Context, string, string) (*idp.Account, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) DeleteUser(ctx context.Context, subject string) error {
	f.calls++
	return f.deleteUser(ctx, subject)
}

// brokenDelete fails every store delete.
type brokenDelete struct {
	user.Repo
}

func (brokenDelete) Delete(context.Context, string) error { return errors.New("deadlock detected") }

type fixture struct {
	uc     *Usecase
	users  *memory.UserRepo
	outbox *memory.OutboxRepo
}

func newFixture(t *testing.T, p idp.Provider, users user.Repo) *fixture {
	t.Helper()
	f := &fixture{users: memory.NewUserRepo(), outbox: memory.NewOutboxRepo()}
	if users == nil {
		users = f.users
	}
	pol := retry.Policy{Name: "test", Attempts: 3, Retryable: func(err error) bool { return errors.Is(err, idp.ErrUnavailable) }}
	f.uc = NewUseCase(Deps{
		Users:         users,
		Tx:            memory.NewTransactor(),
		Outbox:        f.outbox,
		Provider:      p,
		IdentityRetry: &pol,
		Now:           func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
	return f
}

func seed(t *testing.T, repo user.Repo, id, externalID string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &user.User{
		ID: id, Email: id + "@example.com", FirstName: "Ada", LastName: "Lovelace",
		Role: user.RoleVisitor, ExternalID: externalID,
	}))
}

func kinds(msgs []domainoutbox.Message) []domainoutbox.Kind {
	out := make([]domainoutbox.Kind, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Kind)
	}
	return out
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, nil, nil)
	seed(t, f.users, "u1", "")
	ctx := context.Background()

	name := "  Augusta "
	u, err := f.uc.UpdateProfile(ctx, "u1", validation.ProfilePatch{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.Equal(t, user.RoleVisitor, u.Role)

	_, err = f.uc.UpdateProfile(ctx, "missing", validation.ProfilePatch{FirstName: &name})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	markup := "<i>x</i>"
	_, err = f.uc.UpdateProfile(ctx, "u1", validation.ProfilePatch{LastName: &markup})
	var verrs validation.Errors
	assert.ErrorAs(t, err, &verrs)
}

func TestDeleteAccount_DatabaseMode(t *testing.T) {
	f := newFixture(t, nil, nil)
	seed(t, f.users, "u1", "")
	ctx := context.Background()

	require.NoError(t, f.uc.DeleteAccount(ctx, "u1"))
	_, err := f.users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Equal(t, []domainoutbox.Kind{domainoutbox.KindAccountDeleted}, kinds(f.outbox.Messages()))

	assert.ErrorIs(t, f.uc.DeleteAccount(ctx, "u1"), user.ErrUserNotFound)
}

func TestDeleteAccount_ProviderFirst(t *testing.T) {
	var order []string
	p := &fakeProvider{deleteUser: func(_ context.Context, subject string) error {
		order = append(order, "provider:"+subject)
		return nil
	}}
	f := newFixture(t, p, nil)
	seed(t, f.users, "u1", "sub-1")

	require.NoError(t, f.uc.DeleteAccount(context.Background(), "u1"))
	assert.Equal(t, []string{"provider:sub-1"}, order)
	assert.Equal(t, 0, f.users.Len())
}

func TestDeleteAccount_ProviderFailureDeletesNothing(t *testing.T) {
	p := &fakeProvider{deleteUser: func(context.Context, string) error { return idp.ErrUnavailable }}
	f := newFixture(t, p, nil)
	seed(t, f.users, "u1", "sub-1")

	err := f.uc.DeleteAccount(context.Background(), "u1")
	require.ErrorIs(t, err, idp.ErrUnavailable)
	var perr *PartialDeletionError
	assert.False(t, errors.As(err, &perr))
	assert.Equal(t, 3, p.calls, "transport failures are retried")
	assert.Equal(t, 1, f.users.Len())
	assert.Empty(t, f.outbox.Messages())
}

func TestDeleteAccount_ProviderAccountAlreadyGone(t *testing.T) {
	p := &fakeProvider{deleteUser: func(context.Context, string) error { return idp.ErrAccountNotFound }}
	f := newFixture(t, p, nil)
	seed(t, f.users, "u1", "sub-1")

	require.NoError(t, f.uc.DeleteAccount(context.Background(), "u1"))
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 0, f.users.Len())
}

func TestDeleteAccount_StoreFailureAfterProviderIsPartial(t *testing.T) {
	p := &fakeProvider{deleteUser: func(context.Context, string) error { return nil }}
	base := memory.NewUserRepo()
	seed(t, base, "u1", "sub-1")
	f := newFixture(t, p, brokenDelete{Repo: base})

	err := f.uc.DeleteAccount(context.Background(), "u1")
	var perr *PartialDeletionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "u1", perr.UserID)
	assert.Equal(t, "sub-1", perr.ExternalID)

	msgs := f.outbox.Messages()
	require.Equal(t, []domainoutbox.Kind{domainoutbox.KindReconcileRequired}, kinds(msgs))
	var ev domainoutbox.AccountEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &ev))
	assert.Equal(t, "sub-1", ev.ExternalID)
	assert.NotEmpty(t, ev.Reason)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t, nil, nil)
	seed(t, f.users, "u1", "")
	ctx := context.Background()

	u, err := f.uc.SetRole(ctx, "u1", "staff")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStaff, u.Role)

	u, err = f.uc.AssignRole(ctx, " U1@Example.com", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)

	_, err = f.uc.SetRole(ctx, "u1", "curator")
	var verrs validation.Errors
	assert.ErrorAs(t, err, &verrs)

	_, err = f.uc.SetRole(ctx, "nobody", "STAFF")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
