package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/USSTM/doc-gateway/internal/apperr"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    int64
	RoleID    int64
	TokenID   string
	ExpiresAt time.Time
}

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Authenticator struct {
	jwtService TokenValidator
	revoked    RevocationChecker
}

func NewAuthenticator(jwtService TokenValidator, revoked RevocationChecker) *Authenticator {
	return &Authenticator{
		jwtService: jwtService,
		revoked:    revoked,
	}
}

// Authenticate resolves an Authorization header value to a Principal.
// Every token problem is reported as apperr.ErrUnauthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (*Principal, error) {
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header missing: %w", apperr.ErrUnauthenticated)
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return nil, fmt.Errorf("invalid authorization header format: %w", apperr.ErrUnauthenticated)
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	claims, err := a.jwtService.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w: %w", apperr.ErrUnauthenticated, err)
	}

	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token revoked: %w", apperr.ErrUnauthenticated)
		}
	}

	return &Principal{
		UserID:    claims.UserID,
		RoleID:    claims.RoleID,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
