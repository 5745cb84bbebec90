package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRevocationStore(t *testing.T) (*auth.RevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return auth.NewRevocationStore(client), mr
}

func TestAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()
	jwtSvc, err := auth.NewJWTService([]byte("test-signing-key"), "test-issuer", time.Hour)
	require.NoError(t, err)
	store, _ := newRevocationStore(t)
	authenticator := auth.NewAuthenticator(jwtSvc, store)

	token, err := jwtSvc.GenerateToken(ctx, 11, 2)
	require.NoError(t, err)

	t.Run("valid bearer token", func(t *testing.T) {
		p, err := authenticator.Authenticate(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, int64(11), p.UserID)
		assert.Equal(t, int64(2), p.RoleID)
		assert.NotEmpty(t, p.TokenID)
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic dXNlcjpwYXNz",
		"garbage token":  "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := authenticator.Authenticate(ctx, header)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}

	t.Run("revoked token", func(t *testing.T) {
		other, err := jwtSvc.GenerateToken(ctx, 12, 3)
		require.NoError(t, err)
		p, err := authenticator.Authenticate(ctx, "Bearer "+other)
		require.NoError(t, err)

		require.NoError(t, store.Revoke(ctx, p.TokenID, time.Hour))

		_, err = authenticator.Authenticate(ctx, "Bearer "+other)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

		_, err = authenticator.Authenticate(ctx, "Bearer "+token)
		assert.NoError(t, err, "other tokens stay valid")
	})
}

func TestAuthenticator_RevocationStoreDown(t *testing.T) {
	ctx := context.Background()
	jwtSvc, err := auth.NewJWTService([]byte("test-signing-key"), "test-issuer", time.Hour)
	require.NoError(t, err)
	store, mr := newRevocationStore(t)
	authenticator := auth.NewAuthenticator(jwtSvc, store)

	token, err := jwtSvc.GenerateToken(ctx, 1, 1)
	require.NoError(t, err)
	mr.Close()

	_, err = authenticator.Authenticate(ctx, "Bearer "+token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestAuthenticator_WithMockJWT(t *testing.T) {
	ctx := context.Background()
	mockJWT := testutil.NewMockJWTService(t)
	mockJWT.ExpectValidateToken("expired", nil, errors.New("token validation failed: exp not satisfied"))

	_, err := auth.NewAuthenticator(mockJWT, nil).Authenticate(ctx, "Bearer expired")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	mockJWT.AssertExpectations(t)
}

func TestRevocationStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRevocationStore(t)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-2", -time.Second))
	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens are not stored")
}

func TestPrincipalContext(t *testing.T) {
	_, ok := auth.GetPrincipal(context.Background())
	assert.False(t, ok)

	p := &auth.Principal{UserID: 5, RoleID: 1}
	got, ok := auth.GetPrincipal(auth.WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Same(t, p, got)
}
