package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	tokenAudience = "doc-gateway"
	claimUserID   = "user_id"
	claimRoleID   = "role_id"
)

// ErrInvalidToken wraps every parse, signature and claim failure.
var ErrInvalidToken = errors.New("invalid token")

// JWTService issues and verifies HS256 session tokens. Each token carries
// the holder's role and a unique jti used for revocation.
type JWTService struct {
	key    jwk.Key
	issuer string
	expiry time.Duration
}

type TokenClaims struct {
	UserID    int64
	RoleID    int64
	TokenID   string
	ExpiresAt time.Time
}

func NewJWTService(secret []byte, issuer string, expiry time.Duration) (*JWTService, error) {
	key, err := jwk.FromRaw(secret)
	if err != nil {
		return nil, fmt.Errorf("build signing key: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.HS256); err != nil {
		return nil, fmt.Errorf("set signing algorithm: %w", err)
	}
	return &JWTService{key: key, issuer: issuer, expiry: expiry}, nil
}

func (s *JWTService) GenerateToken(_ context.Context, userID, roleID int64) (string, error) {
	issued := time.Now()
	subject := strconv.FormatInt(userID, 10)

	tok, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Audience([]string{tokenAudience}).
		Subject(subject).
		JwtID(uuid.NewString()).
		IssuedAt(issued).
		Expiration(issued.Add(s.expiry)).
		Claim(claimUserID, subject).
		Claim(claimRoleID, strconv.FormatInt(roleID, 10)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// ValidateToken verifies signature, issuer, audience and expiry, then
// extracts the identity claims.
func (s *JWTService) ValidateToken(_ context.Context, raw string) (*TokenClaims, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := int64Claim(tok, claimUserID)
	if err != nil {
		return nil, err
	}
	roleID, err := int64Claim(tok, claimRoleID)
	if err != nil {
		return nil, err
	}
	if tok.JwtID() == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	return &TokenClaims{
		UserID:    userID,
		RoleID:    roleID,
		TokenID:   tok.JwtID(),
		ExpiresAt: tok.Expiration(),
	}, nil
}

func int64Claim(tok jwt.Token, name string) (int64, error) {
	raw, ok := tok.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidToken, name)
	}
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a string", ErrInvalidToken, name)
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidToken, name, err)
	}
	return v, nil
}
