package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Role struct {
	ID   int64
	Name string
}

type Permission struct {
	ID          int64
	Name        string
	Description string
}

type RolesPermission struct {
	RoleID       int64
	PermissionID int64
	AccessType   string
}

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	RoleID       int64
	CreatedAt    pgtype.Timestamptz
}

type Document struct {
	ID           int64
	OriginalName string
	StoredName   string
	MimeType     string
	StoragePath  string
	UploadedAt   pgtype.Timestamptz
}
