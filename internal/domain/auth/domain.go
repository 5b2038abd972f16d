package auth

import (
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

type AccessInput struct {
	UserID string
	Email  string
	Role   user.Role
}

type AccessClaims struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carry no email or role: both are re-read from the store on refresh.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
