package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/rbac"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestUser represents a test user
type TestUser struct {
	ID       int64
	Email    string
	Password string
	RoleID   int64
	RoleName string
}

// UserBuilder provides a fluent interface for creating test users
type UserBuilder struct {
	firstName string
	lastName  string
	email     string
	password  string
	roleName  string
	testDB    *TestDatabase
	t         *testing.T
}

// NewUser creates a new user builder
func (tdb *TestDatabase) NewUser(t *testing.T) *UserBuilder {
	return &UserBuilder{
		firstName: "Test",
		lastName:  "User",
		email:     "test@example.com",
		password:  "password123",
		roleName:  rbac.RoleViewer,
		testDB:    tdb,
		t:         t,
	}
}

// WithEmail sets the user's email
func (ub *UserBuilder) WithEmail(email string) *UserBuilder {
	ub.email = email
	return ub
}

// WithPassword sets the plaintext password
func (ub *UserBuilder) WithPassword(password string) *UserBuilder {
	ub.password = password
	return ub
}

func (ub *UserBuilder) AsAdmin() *UserBuilder {
	ub.roleName = rbac.RoleAdmin
	return ub
}

func (ub *UserBuilder) AsEditor() *UserBuilder {
	ub.roleName = rbac.RoleEditor
	return ub
}

func (ub *UserBuilder) AsViewer() *UserBuilder {
	ub.roleName = rbac.RoleViewer
	return ub
}

// Create inserts the user with a bcrypt hash of its password
func (ub *UserBuilder) Create() *TestUser {
	ctx := context.Background()

	role, err := ub.testDB.Queries().GetRoleByName(ctx, ub.roleName)
	require.NoError(ub.t, err, "Failed to load role %s", ub.roleName)

	hash, err := bcrypt.GenerateFromPassword([]byte(ub.password), bcrypt.MinCost)
	require.NoError(ub.t, err, "Failed to hash password")

	user, err := ub.testDB.Queries().CreateUser(ctx, db.CreateUserParams{
		FirstName:    ub.firstName,
		LastName:     ub.lastName,
		Email:        ub.email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
	})
	require.NoError(ub.t, err, "Failed to create user")

	return &TestUser{
		ID:       user.ID,
		Email:    user.Email,
		Password: ub.password,
		RoleID:   role.ID,
		RoleName: role.Name,
	}
}

// TestDocument represents a document row
type TestDocument struct {
	ID           int64
	OriginalName string
	StoredName   string
	UploadedAt   time.Time
}

// DocumentBuilder inserts document rows directly, without bytes
type DocumentBuilder struct {
	originalName string
	storedName   string
	mimeType     string
	testDB       *TestDatabase
	t            *testing.T
}

func (tdb *TestDatabase) NewDocument(t *testing.T) *DocumentBuilder {
	return &DocumentBuilder{
		originalName: "test.txt",
		storedName:   "test-stored.txt",
		mimeType:     "text/plain",
		testDB:       tdb,
		t:            t,
	}
}

func (b *DocumentBuilder) WithOriginalName(name string) *DocumentBuilder {
	b.originalName = name
	return b
}

func (b *DocumentBuilder) WithStoredName(name string) *DocumentBuilder {
	b.storedName = name
	return b
}

func (b *DocumentBuilder) Create() *TestDocument {
	row, err := b.testDB.Queries().CreateDocument(context.Background(), db.CreateDocumentParams{
		OriginalName: b.originalName,
		StoredName:   b.storedName,
		MimeType:     b.mimeType,
		StoragePath:  "/uploads/" + b.storedName,
	})
	require.NoError(b.t, err, "Failed to create document")

	return &TestDocument{
		ID:           row.ID,
		OriginalName: row.OriginalName,
		StoredName:   row.StoredName,
		UploadedAt:   row.UploadedAt.Time,
	}
}
