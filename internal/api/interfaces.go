package api

import (
	"context"
	"io"

	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/documents"
	"github.com/USSTM/doc-gateway/internal/rbac"
)

// DatabaseService defines the interface for database operations
type DatabaseService interface {
	Queries() *db.Queries
	Ping(ctx context.Context) error
}

// Authenticator resolves an Authorization header to a principal
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*auth.Principal, error)
}

// Authorizer evaluates a principal's role grants
type Authorizer interface {
	Authorize(ctx context.Context, p *auth.Principal, action rbac.Action, resource rbac.Resource) error
	Ability(ctx context.Context, p *auth.Principal) (rbac.Ability, error)
}

// AuthService defines the interface for account operations
type AuthService interface {
	Register(ctx context.Context, p auth.RegisterParams) (db.User, string, error)
	Login(ctx context.Context, email, password string) (db.User, string, error)
	Logout(ctx context.Context, p *auth.Principal) error
}

// DocumentService defines the interface for document lifecycle operations
type DocumentService interface {
	Create(ctx context.Context, f documents.StoredFile) (documents.Summary, error)
	Retrieve(ctx context.Context, id int64) (documents.Document, io.ReadCloser, error)
	Update(ctx context.Context, id int64, f documents.StoredFile) (documents.Document, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]documents.Listing, error)
}
