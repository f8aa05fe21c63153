package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "attendance-api"}, nil)

	token, expiresAt, err := svc.IssueToken("user-1", "admin")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewAuthService(AuthConfig{Secret: "secret-a", Expiration: time.Hour}, nil)
	verifier := NewAuthService(AuthConfig{Secret: "secret-b", Expiration: time.Hour}, nil)

	token, _, err := issuer.IssueToken("user-1", "viewer")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"}, nil)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
