package auth

type AccessVerifier interface {
	VerifyAccessToken(raw string) (*AccessClaims, error)
}

type Issuer interface {
	IssueAccessToken(in AccessInput) (string, error)
	IssueRefreshToken(userID string) (string, error)
	IssueTokenPair(in AccessInput) (TokenPair, error)
	VerifyRefreshToken(raw string) (*RefreshClaims, error)
}
