package auth

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer     = "museum-app"
	DefaultAudience   = "museum-api"
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrConfiguration       = errors.New("token service misconfigured")
	ErrTokenExpired        = errors.New("access token expired")
	ErrInvalidToken        = errors.New("invalid access token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// Tokens issues and verifies the access/refresh JWT pair. Each token class is
// bound to its own secret and is never checked against the other one.
type Tokens struct {
	cfg Config
}

var _ domainauth.Issuer = (*Tokens)(nil)
var _ domainauth.AccessVerifier = (*Tokens)(nil)

func New(cfg Config) (*Tokens, error) {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if len(cfg.AccessSecret) > 0 && bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrConfiguration)
	}
	return &Tokens{cfg: cfg}, nil
}

func (t *Tokens) AccessTTL() time.Duration  { return t.cfg.AccessTTL }
func (t *Tokens) RefreshTTL() time.Duration { return t.cfg.RefreshTTL }

func (t *Tokens) IssueAccessToken(in domainauth.AccessInput) (string, error) {
	if len(t.cfg.AccessSecret) == 0 {
		return "", fmt.Errorf("%w: access secret is not set", ErrConfiguration)
	}
	claims := domainauth.AccessClaims{
		UserID:           in.UserID,
		Email:            in.Email,
		Role:             in.Role,
		RegisteredClaims: t.registered(in.UserID, t.cfg.AccessTTL),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access: %w", err)
	}
	return signed, nil
}

func (t *Tokens) IssueRefreshToken(userID string) (string, error) {
	if len(t.cfg.RefreshSecret) == 0 {
		return "", fmt.Errorf("%w: refresh secret is not set", ErrConfiguration)
	}
	claims := domainauth.RefreshClaims{
		UserID:           userID,
		RegisteredClaims: t.registered(userID, t.cfg.RefreshTTL),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh: %w", err)
	}
	return signed, nil
}

// IssueTokenPair returns both tokens or none.
func (t *Tokens) IssueTokenPair(in domainauth.AccessInput) (domainauth.TokenPair, error) {
	access, err := t.IssueAccessToken(in)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	refresh, err := t.IssueRefreshToken(in.UserID)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	return domainauth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *Tokens) VerifyAccessToken(raw string) (*domainauth.AccessClaims, error) {
	if len(t.cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("%w: access secret is not set", ErrConfiguration)
	}
	var claims domainauth.AccessClaims
	if err := t.parse(raw, &claims, t.cfg.AccessSecret); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (t *Tokens) VerifyRefreshToken(raw string) (*domainauth.RefreshClaims, error) {
	if len(t.cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("%w: refresh secret is not set", ErrConfiguration)
	}
	var claims domainauth.RefreshClaims
	if err := t.parse(raw, &claims, t.cfg.RefreshSecret); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}
	return &claims, nil
}

func (t *Tokens) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.cfg.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    t.cfg.Issuer,
		Audience:  jwt.ClaimStrings{t.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *Tokens) parse(raw string, claims jwt.Claims, secret []byte) error {
	if raw == "" {
		return errors.New("empty token")
	}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithAudience(t.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.cfg.Now),
	)
	return err
}
