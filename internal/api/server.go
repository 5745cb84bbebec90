package api

import (
	"reflect"
	"strings"

	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/go-playground/validator/v10"
)

type Server struct {
	db            DatabaseService
	authService   AuthService
	authenticator Authenticator
	authorizer    Authorizer
	documents     DocumentService
	blobs         storage.BlobStore
	maxFileSize   int64
	validate      *validator.Validate
}

// NewServer wires the HTTP handlers. blobs receives uploads before the
// document service records them; maxFileSize bounds each upload.
func NewServer(db DatabaseService, authService AuthService, authenticator Authenticator, authorizer Authorizer, docs DocumentService, blobs storage.BlobStore, maxFileSize int64) *Server {
	return &Server{
		db:            db,
		authService:   authService,
		authenticator: authenticator,
		authorizer:    authorizer,
		documents:     docs,
		blobs:         blobs,
		maxFileSize:   maxFileSize,
		validate:      newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
