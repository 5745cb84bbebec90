package auth

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(t *testing.T, secret, issuer string, expiry time.Duration) *JWTService {
	t.Helper()
	svc, err := NewJWTService([]byte(secret), issuer, expiry)
	require.NoError(t, err)
	return svc
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWT(t, "test-secret-key", "test-issuer", time.Hour)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, 7, 2)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(2), claims.RoleID)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestJWTService_TokenIDsAreUnique(t *testing.T) {
	svc := newTestJWT(t, "test-secret-key", "test-issuer", time.Hour)
	ctx := context.Background()

	first, err := svc.GenerateToken(ctx, 1, 1)
	require.NoError(t, err)
	second, err := svc.GenerateToken(ctx, 1, 1)
	require.NoError(t, err)

	c1, err := svc.ValidateToken(ctx, first)
	require.NoError(t, err)
	c2, err := svc.ValidateToken(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.TokenID, c2.TokenID)
}

func TestJWTService_Rejects(t *testing.T) {
	ctx := context.Background()
	issuerA := newTestJWT(t, "secret-1", "issuer-a", time.Hour)

	valid, err := issuerA.GenerateToken(ctx, 7, 2)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *JWTService
		token    string
	}{
		{"garbage", issuerA, "invalid-token"},
		{"wrong secret", newTestJWT(t, "secret-2", "issuer-a", time.Hour), valid},
		{"wrong issuer", newTestJWT(t, "secret-1", "issuer-b", time.Hour), valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.ValidateToken(ctx, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := newTestJWT(t, "test-secret-key", "test-issuer", time.Millisecond)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, 7, 2)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsForeignAudience(t *testing.T) {
	svc := newTestJWT(t, "test-secret-key", "test-issuer", time.Hour)

	tok, err := jwt.NewBuilder().
		Issuer("test-issuer").
		Audience([]string{"some-other-service"}).
		JwtID("abc").
		Expiration(time.Now().Add(time.Hour)).
		Claim(claimUserID, "7").
		Claim(claimRoleID, "2").
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, svc.key))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), string(signed))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsNonNumericRole(t *testing.T) {
	svc := newTestJWT(t, "test-secret-key", "test-issuer", time.Hour)

	tok, err := jwt.NewBuilder().
		Issuer("test-issuer").
		Audience([]string{tokenAudience}).
		JwtID("abc").
		Expiration(time.Now().Add(time.Hour)).
		Claim(claimUserID, "7").
		Claim(claimRoleID, "admin").
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, svc.key))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), string(signed))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
