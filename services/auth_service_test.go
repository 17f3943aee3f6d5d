package services

import (
	"context"
	"testing"
	"time"

	"calorietrack/apperrors"
	"calorietrack/config"
	"calorietrack/logger"
	"calorietrack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T, secret string) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), config.AuthConfig{JWTSecret: secret, TokenTTL: time.Hour}, logger.Discard())
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc := newTestAuth(t, "s3cret")
	ctx := context.Background()

	user, err := svc.Register(ctx, "ana", " Ana@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.Password)

	token, err := svc.Login(ctx, "ANA@example.com", "hunter22")
	require.NoError(t, err)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)
}

func TestAuthRegisterRejects(t *testing.T) {
	svc := newTestAuth(t, "s3cret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@b.co", "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.Register(ctx, "a", "not-an-email", "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.Register(ctx, "a", "a@b.co", "12345")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Register(ctx, "a", "a@b.co", "hunter22")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "b", "A@B.CO", "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthLoginFailures(t *testing.T) {
	svc := newTestAuth(t, "s3cret")
	ctx := context.Background()
	_, err := svc.Register(ctx, "a", "a@b.co", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody@b.co", "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Login(ctx, "a@b.co", "wrong-pass")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.VerifyToken("garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	other, err := utils.GenerateJWT("other-secret", "u1", time.Hour)
	require.NoError(t, err)
	_, err = svc.VerifyToken(other)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthWithoutSecret(t *testing.T) {
	svc := newTestAuth(t, "")
	ctx := context.Background()
	_, err := svc.Register(ctx, "a", "a@b.co", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@b.co", "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	_, err = svc.VerifyToken("anything")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
