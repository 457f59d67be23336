package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryproxy/internal/testutil"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewAuthService(testutil.NewFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	// Email uniqueness is case-insensitive
	_, err = svc.Register(ctx, "alice2", "ALICE@example.COM", "other-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := svc.Authenticate(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestIssueAPIKeyInvalidatesPrevious(t *testing.T) {
	svc := NewAuthService(testutil.NewFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	first, err := svc.IssueAPIKey(ctx, user.ID)
	require.NoError(t, err)

	owner, err := svc.ResolveAPIKey(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, user.ID, owner.ID)

	second, err := svc.IssueAPIKey(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	stale, err := svc.ResolveAPIKey(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, stale)

	owner, err = svc.ResolveAPIKey(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, user.ID, owner.ID)
}

func TestResolveAPIKeyNeverMatchesUnissued(t *testing.T) {
	svc := NewAuthService(testutil.NewFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	// No key has been issued; neither an empty nor a guessed value resolves
	owner, err := svc.ResolveAPIKey(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, owner)

	owner, err = svc.ResolveAPIKey(ctx, "guessed-key")
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestResetPassword(t *testing.T) {
	svc := NewAuthService(testutil.NewFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "old-password")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", "new-password"))

	_, err = svc.Authenticate(ctx, "alice@example.com", "old-password")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "alice@example.com", "new-password")
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, "nobody@example.com", "x")
	assert.Error(t, err)
}
