package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	domainoutbox "github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"github.com/I-Yanis-I/museum-app/internal/obs/retry"
	"github.com/I-Yanis-I/museum-app/internal/outbox"
	"github.com/I-Yanis-I/museum-app/internal/validation"
	"go.uber.org/zap"
)

// PartialDeletionError means the identity provider account is gone but the store
// record survived. The account needs manual reconciliation.
type PartialDeletionError struct {
	UserID     string
	ExternalID string
	Err        error
}

func (e *PartialDeletionError) Error() string {
	return fmt.Sprintf("account %s partially deleted: provider account %s removed, store delete failed: %v", e.UserID, e.ExternalID, e.Err)
}

func (e *PartialDeletionError) Unwrap() error { return e.Err }

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Deps struct {
	Users    user.Repo
	Tx       Transactor
	Outbox   domainoutbox.Repository
	Provider idp.Provider
	Logger   *zap.Logger
	// IdentityRetry overrides the retry policy of identity provider calls.
	IdentityRetry *retry.Policy
	Now           func() time.Time
}

type Usecase struct {
	users    user.Repo
	tx       Transactor
	outbox   domainoutbox.Repository
	provider idp.Provider
	log      *zap.Logger
	retry    retry.Policy
	now      func() time.Time
}

func NewUseCase(d Deps) *Usecase {
	log := obs.OrNop(d.Logger)
	pol := retry.DefaultIdentityPolicy(log)
	if d.IdentityRetry != nil {
		pol = *d.IdentityRetry
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{
		users:    d.Users,
		tx:       d.Tx,
		outbox:   d.Outbox,
		provider: d.Provider,
		log:      log,
		retry:    pol,
		now:      now,
	}
}

func (u *Usecase) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	return u.users.GetByID(ctx, userID)
}

// UpdateProfile applies the set fields of patch; email, role and password are not reachable from here.
func (u *Usecase) UpdateProfile(ctx context.Context, userID string, patch validation.ProfilePatch) (*user.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		rec.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		rec.LastName = *patch.LastName
	}
	if err := u.users.UpdateProfile(ctx, rec); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	obs.WithTrace(ctx, u.log).Info("profile updated", zap.String("user_id", rec.ID))
	return rec, nil
}

// DeleteAccount removes the identity provider account first, then the store
// record together with its account.deleted event. A failure of the second step is
// reported as *PartialDeletionError and is not compensated.
func (u *Usecase) DeleteAccount(ctx context.Context, userID string) error {
	log := obs.WithTrace(ctx, u.log).With(zap.String("user_id", userID))

	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if rec.ExternalID != "" && u.provider != nil {
		err := retry.Do(ctx, func() error { return u.provider.DeleteUser(ctx, rec.ExternalID) }, u.retry)
		switch {
		case errors.Is(err, idp.ErrAccountNotFound):
			log.Warn("provider account already gone", zap.String("external_id", rec.ExternalID))
		case err != nil:
			obs.AuthEvent("delete", "provider_error")
			return fmt.Errorf("%s delete user: %w", u.provider.Name(), err)
		}
	}

	at := u.now()
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Delete(ctx, rec.ID); err != nil {
			return err
		}
		return outbox.EnqueueAccountEvent(ctx, u.outbox, domainoutbox.KindAccountDeleted, domainoutbox.AccountEvent{
			UserID:     rec.ID,
			Email:      rec.Email,
			Role:       string(rec.Role),
			ExternalID: rec.ExternalID,
			At:         at,
		})
	})
	if err != nil {
		if rec.ExternalID == "" || u.provider == nil {
			obs.AuthEvent("delete", "error")
			return fmt.Errorf("delete user: %w", err)
		}
		perr := &PartialDeletionError{UserID: rec.ID, ExternalID: rec.ExternalID, Err: err}
		log.Error("account partially deleted", zap.String("external_id", rec.ExternalID), zap.Error(err))
		obs.AuthEvent("delete", "partial")
		u.requestReconcile(ctx, rec, err, at)
		return perr
	}

	obs.AuthEvent("delete", "ok")
	log.Info("account deleted")
	return nil
}

// requestReconcile records that rec needs manual cleanup. It runs detached from the
// request deadline and only logs its own failure.
func (u *Usecase) requestReconcile(ctx context.Context, rec *user.User, cause error, at time.Time) {
	ctx = context.WithoutCancel(ctx)
	err := outbox.EnqueueAccountEvent(ctx, u.outbox, domainoutbox.KindReconcileRequired, domainoutbox.AccountEvent{
		UserID:     rec.ID,
		Email:      rec.Email,
		ExternalID: rec.ExternalID,
		Reason:     "store delete failed after provider delete: " + cause.Error(),
		At:         at,
	})
	if err != nil {
		obs.WithTrace(ctx, u.log).Error("enqueue reconcile event",
			zap.String("user_id", rec.ID), zap.String("external_id", rec.ExternalID), zap.Error(err))
	}
}

// SetRole changes the role of targetID. Callers are responsible for authorizing the actor.
func (u *Usecase) SetRole(ctx context.Context, targetID string, role string) (*user.User, error) {
	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	rec, err := u.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return u.applyRole(ctx, rec, r)
}

// AssignRole is SetRole addressed by email.
func (u *Usecase) AssignRole(ctx context.Context, email string, role string) (*user.User, error) {
	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	rec, err := u.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return u.applyRole(ctx, rec, r)
}

func (u *Usecase) applyRole(ctx context.Context, rec *user.User, r user.Role) (*user.User, error) {
	if rec.Role == r {
		return rec, nil
	}
	prev := rec.Role
	rec.Role = r
	if err := u.users.UpdateRole(ctx, rec); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	obs.WithTrace(ctx, u.log).Info("role changed",
		zap.String("user_id", rec.ID), zap.String("from", string(prev)), zap.String("to", string(r)))
	return rec, nil
}

func parseRole(s string) (user.Role, error) {
	r, ok := user.ParseRole(s)
	if !ok {
		errs := validation.Errors{}
		errs.Add("role", "Role must be one of VISITOR, STAFF, ADMIN")
		return "", errs
	}
	return r, nil
}
