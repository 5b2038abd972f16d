package session

import (
	"context"

	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
)

type ctxKey int

const claimsKey ctxKey = 1

func WithClaims(ctx context.Context, c *domainauth.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom returns the access claims verified for this request.
func ClaimsFrom(ctx context.Context) (*domainauth.AccessClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*domainauth.AccessClaims)
	return c, ok && c != nil
}
