package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/rbac"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// UserStore is the user and role side of the schema used by AuthService.
type UserStore interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	GetRoleByID(ctx context.Context, id int64) (db.Role, error)
	GetRoleByName(ctx context.Context, name string) (db.Role, error)
}

type TokenIssuer interface {
	GenerateToken(ctx context.Context, userID, roleID int64) (string, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService handles password registration, login and token revocation.
type AuthService struct {
	users   UserStore
	jwt     TokenIssuer
	revoker Revoker
}

func NewAuthService(users UserStore, jwtSvc TokenIssuer, revoker Revoker) *AuthService {
	return &AuthService{
		users:   users,
		jwt:     jwtSvc,
		revoker: revoker,
	}
}

// RegisterParams describes a new account. A nil RoleID assigns the
// Viewer role.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	RoleID    *int64
}

// Register creates a user and returns it with a fresh access token.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (db.User, string, error) {
	email := normalizeEmail(p.Email)

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return db.User{}, "", fmt.Errorf("email %s: %w", email, apperr.ErrConflict)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return db.User{}, "", fmt.Errorf("checking existing user: %w", err)
	}

	role, err := s.resolveRole(ctx, p.RoleID)
	if err != nil {
		return db.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return db.User{}, "", fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, db.CreateUserParams{
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return db.User{}, "", fmt.Errorf("email %s: %w", email, apperr.ErrConflict)
		}
		return db.User{}, "", fmt.Errorf("creating user: %w", err)
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID, user.RoleID)
	if err != nil {
		return db.User{}, "", fmt.Errorf("generating access token: %w", err)
	}

	logging.Info("user registered", "user_id", user.ID, "role", role.Name)
	return user, token, nil
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (db.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.User{}, "", apperr.ErrInvalidCredentials
		}
		return db.User{}, "", fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return db.User{}, "", apperr.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID, user.RoleID)
	if err != nil {
		return db.User{}, "", fmt.Errorf("generating access token: %w", err)
	}

	return user, token, nil
}

// Logout revokes the principal's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	if p == nil {
		return apperr.ErrUnauthenticated
	}
	if err := s.revoker.Revoke(ctx, p.TokenID, time.Until(p.ExpiresAt)); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	logging.Info("user logged out", "user_id", p.UserID)
	return nil
}

func (s *AuthService) resolveRole(ctx context.Context, roleID *int64) (db.Role, error) {
	if roleID == nil {
		role, err := s.users.GetRoleByName(ctx, rbac.RoleViewer)
		if err != nil {
			return db.Role{}, fmt.Errorf("loading default role: %w", err)
		}
		return role, nil
	}

	role, err := s.users.GetRoleByID(ctx, *roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Role{}, fmt.Errorf("role %d does not exist: %w", *roleID, apperr.ErrValidation)
		}
		return db.Role{}, fmt.Errorf("loading role: %w", err)
	}
	return role, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
