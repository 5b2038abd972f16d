package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	tokens "github.com/I-Yanis-I/museum-app/internal/auth"
	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	domainoutbox "github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"github.com/I-Yanis-I/museum-app/internal/outbox"
	"github.com/I-Yanis-I/museum-app/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// PartialRegistrationError means the identity provider account exists but the
// store record could not be written. Nothing is rolled back.
type PartialRegistrationError struct {
	Email      string
	ExternalID string
	Err        error
}

func (e *PartialRegistrationError) Error() string {
	return fmt.Sprintf("registration incomplete: provider account %s created, store write failed: %v", e.ExternalID, e.Err)
}

func (e *PartialRegistrationError) Unwrap() error { return e.Err }

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Deps struct {
	Users  user.Repo
	Tokens domainauth.Issuer
	Tx     Transactor
	Outbox domainoutbox.Repository
	// Provider switches the service to hybrid mode; nil keeps passwords in the store.
	Provider idp.Provider
	Logger   *zap.Logger
}

type Config struct {
	BcryptCost int
	Now        func() time.Time
}

type Usecase struct {
	users    user.Repo
	tokens   domainauth.Issuer
	tx       Transactor
	outbox   domainoutbox.Repository
	provider idp.Provider
	log      *zap.Logger
	cfg      Config

	// dummyHash is compared against on unknown emails so both failure paths pay for one bcrypt run.
	dummyHash []byte
}

func NewUseCase(d Deps, cfg Config) (*Usecase, error) {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Usecase{
		users:     d.Users,
		tokens:    d.Tokens,
		tx:        d.Tx,
		outbox:    d.Outbox,
		provider:  d.Provider,
		log:       obs.OrNop(d.Logger),
		cfg:       cfg,
		dummyHash: dummy,
	}, nil
}

// Register validates in, creates the account with role VISITOR and records an
// account.registered event in the same transaction as the store write.
func (u *Usecase) Register(ctx context.Context, in validation.RegisterInput) (*user.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	log := obs.WithTrace(ctx, u.log).With(zap.String("email", in.Email))

	if _, err := u.users.GetByEmail(ctx, in.Email); err == nil {
		obs.AuthEvent("register", "duplicate")
		return nil, user.ErrEmailAlreadyExists
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	now := u.cfg.Now()
	rec := &user.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      user.RoleVisitor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if u.provider != nil {
		acc, err := u.provider.SignUp(ctx, in.Email, in.Password, map[string]string{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
		})
		if err != nil {
			if errors.Is(err, idp.ErrAccountExists) {
				obs.AuthEvent("register", "duplicate")
				return nil, user.ErrEmailAlreadyExists
			}
			return nil, fmt.Errorf("%s sign up: %w", u.provider.Name(), err)
		}
		rec.ExternalID = acc.Subject
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		rec.PasswordHash = string(hash)
	}

	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, rec); err != nil {
			return err
		}
		return outbox.EnqueueAccountEvent(ctx, u.outbox, domainoutbox.KindAccountRegistered, accountEvent(rec, now))
	})
	if err != nil {
		if rec.ExternalID != "" {
			perr := &PartialRegistrationError{Email: rec.Email, ExternalID: rec.ExternalID, Err: err}
			log.Error("registration left provider account without store record",
				zap.String("external_id", rec.ExternalID), zap.Error(err))
			obs.AuthEvent("register", "partial")
			return nil, perr
		}
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			obs.AuthEvent("register", "duplicate")
			return nil, user.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	obs.AuthEvent("register", "ok")
	log.Info("user registered", zap.String("user_id", rec.ID))
	return rec, nil
}

// Login checks the credentials and issues a token pair. Unknown emails and wrong
// passwords fail with the same ErrInvalidCredentials.
func (u *Usecase) Login(ctx context.Context, in validation.LoginInput) (*user.User, domainauth.TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, domainauth.TokenPair{}, err
	}

	var (
		rec *user.User
		err error
	)
	if u.provider != nil {
		rec, err = u.loginProvider(ctx, in)
	} else {
		rec, err = u.loginStore(ctx, in)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			obs.AuthEvent("login", "invalid")
		}
		return nil, domainauth.TokenPair{}, err
	}

	pair, err := u.tokens.IssueTokenPair(domainauth.AccessInput{UserID: rec.ID, Email: rec.Email, Role: rec.Role})
	if err != nil {
		return nil, domainauth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	obs.AuthEvent("login", "ok")
	obs.WithTrace(ctx, u.log).Info("user logged in", zap.String("user_id", rec.ID))
	return rec, pair, nil
}

func (u *Usecase) loginStore(ctx context.Context, in validation.LoginInput) (*user.User, error) {
	rec, err := u.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(in.Password))
		return nil, ErrInvalidCredentials
	}
	if rec.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(in.Password))
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return rec, nil
}

func (u *Usecase) loginProvider(ctx context.Context, in validation.LoginInput) (*user.User, error) {
	acc, err := u.provider.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, idp.ErrInvalidCredentials) || errors.Is(err, idp.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s sign in: %w", u.provider.Name(), err)
	}
	rec, err := u.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			obs.WithTrace(ctx, u.log).Warn("provider account without store record", zap.String("external_id", acc.Subject))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if rec.ExternalID != "" && rec.ExternalID != acc.Subject {
		obs.WithTrace(ctx, u.log).Warn("provider subject mismatch",
			zap.String("user_id", rec.ID), zap.String("external_id", acc.Subject))
		return nil, ErrInvalidCredentials
	}
	return rec, nil
}

// RefreshAccess mints a new access token from a valid refresh token. Email and
// role come from the store, not from the refresh token.
func (u *Usecase) RefreshAccess(ctx context.Context, refreshToken string) (string, *user.User, error) {
	if refreshToken == "" {
		return "", nil, tokens.ErrInvalidRefreshToken
	}
	claims, err := u.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		obs.AuthEvent("refresh", "invalid")
		return "", nil, err
	}
	rec, err := u.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			obs.AuthEvent("refresh", "invalid")
			return "", nil, tokens.ErrInvalidRefreshToken
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	access, err := u.tokens.IssueAccessToken(domainauth.AccessInput{UserID: rec.ID, Email: rec.Email, Role: rec.Role})
	if err != nil {
		return "", nil, fmt.Errorf("issue access token: %w", err)
	}
	obs.AuthEvent("refresh", "ok")
	return access, rec, nil
}

// ExcludePassword is the outward projection of a user record.
func ExcludePassword(u *user.User) user.PublicUser {
	return u.Public()
}

func accountEvent(u *user.User, at time.Time) domainoutbox.AccountEvent {
	return domainoutbox.AccountEvent{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		ExternalID: u.ExternalID,
		At:         at,
	}
}
