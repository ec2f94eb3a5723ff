package auth

var _ TokenChecker = (*Service)(nil)
var _ TokenChecker = (*TestChecker)(nil)

type TokenChecker interface {
	VerifyToken(token string) (int, error)
}
