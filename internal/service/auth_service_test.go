package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/config"
	"github.com/spec-kit/bless-tracker/internal/repository"
)

func newAuthService() *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		repository.NewMemoryStore().Profiles())
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	profile, token, exp, err := svc.Register(ctx, " Ana@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.False(t, profile.NotificationsEnabled)
	assert.NotEqual(t, "correct horse", profile.PasswordHash)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.Subject)

	loggedIn, _, _, err := svc.Login(ctx, "ANA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, loggedIn.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	_, _, _, err := svc.Register(ctx, "ana@example.com", "password1")
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "ana@example.com", "password2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	_, _, _, err := svc.Register(ctx, "ana@example.com", "password1")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, _, _, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
