package auth

// TestChecker is used in unit tests instead of a real token Service.
type TestChecker struct {
	// Tokens maps a raw token value to the user ID it authenticates.
	Tokens map[string]int
}

func NewTestChecker() *TestChecker {
	return &TestChecker{
		Tokens: map[string]int{},
	}
}

func (c *TestChecker) VerifyToken(token string) (int, error) {
	userID, ok := c.Tokens[token]
	if !ok {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
