package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_NewToken_VerifyToken(t *testing.T) {
	authService := NewService("test-secret")
	require.NotNil(t, authService)

	token, err := authService.NewToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := authService.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestService_VerifyToken_Invalid(t *testing.T) {
	authService := NewService("test-secret")

	_, err := authService.VerifyToken("definitely-not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// token signed with a different secret
	otherService := NewService("other-secret")
	token, err := otherService.NewToken(42)
	require.NoError(t, err)

	_, err = authService.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_VerifyToken_Tampered(t *testing.T) {
	authService := NewService("test-secret")

	token, err := authService.NewToken(42)
	require.NoError(t, err)

	// flip something in the payload part
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = "eyJpZCI6OTk5fQ"
	tampered := strings.Join(parts, ".")

	_, err = authService.VerifyToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)

	ctx = ContextWithUserID(ctx, 7)
	userID, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, 7, userID)
}

func TestTestChecker(t *testing.T) {
	checker := NewTestChecker()
	checker.Tokens["tok-1"] = 1

	userID, err := checker.VerifyToken("tok-1")
	require.NoError(t, err)
	assert.Equal(t, 1, userID)

	_, err = checker.VerifyToken("unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
