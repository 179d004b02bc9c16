package auth

// TokenIssuer signs admin access tokens.
type TokenIssuer interface {
	GenerateToken(email, role string) (string, error)
}
