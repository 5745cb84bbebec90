package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/stretchr/testify/mock"
)

// MockJWTService is a mock implementation of the JWT service interface
type MockJWTService struct {
	mock.Mock
}

// NewMockJWTService creates a new mock JWT service
func NewMockJWTService(t *testing.T) *MockJWTService {
	mockJWT := &MockJWTService{}
	mockJWT.Test(t)
	return mockJWT
}

// GenerateToken mocks token generation
func (m *MockJWTService) GenerateToken(ctx context.Context, userID, roleID int64) (string, error) {
	args := m.Called(ctx, userID, roleID)
	return args.String(0), args.Error(1)
}

// ValidateToken mocks token validation
func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.TokenClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.TokenClaims)
	return claims, args.Error(1)
}

// MockGrantStore is a mock implementation of rbac.GrantStore
type MockGrantStore struct {
	mock.Mock
}

func NewMockGrantStore(t *testing.T) *MockGrantStore {
	m := &MockGrantStore{}
	m.Test(t)
	return m
}

func (m *MockGrantStore) ListGrantsByRole(ctx context.Context, roleID int64) ([]db.ListGrantsByRoleRow, error) {
	args := m.Called(ctx, roleID)
	rows, _ := args.Get(0).([]db.ListGrantsByRoleRow)
	return rows, args.Error(1)
}

// Helper methods for setting up common mock expectations

// ExpectGenerateToken sets up expectation for GenerateToken
func (m *MockJWTService) ExpectGenerateToken(userID, roleID int64, token string, err error) *mock.Call {
	return m.On("GenerateToken", mock.Anything, userID, roleID).Return(token, err)
}

// ExpectValidateToken sets up expectation for ValidateToken
func (m *MockJWTService) ExpectValidateToken(token string, claims *auth.TokenClaims, err error) *mock.Call {
	return m.On("ValidateToken", mock.Anything, token).Return(claims, err)
}

// ExpectGrants sets up the grants returned for roleID as "Resource:ACTION" pairs.
func (m *MockGrantStore) ExpectGrants(roleID int64, pairs ...string) *mock.Call {
	rows := make([]db.ListGrantsByRoleRow, 0, len(pairs))
	for _, p := range pairs {
		resource, action, _ := strings.Cut(p, ":")
		rows = append(rows, db.ListGrantsByRoleRow{PermissionName: resource, AccessType: action})
	}
	return m.On("ListGrantsByRole", mock.Anything, roleID).Return(rows, nil)
}
