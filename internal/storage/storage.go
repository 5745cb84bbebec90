// Package storage holds the byte side of a document: a flat namespace of
// objects addressed by their stored name.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid object name")
)

type Object struct {
	Name string
	Path string
	Size int64
}

// BlobStore persists document bytes. Remove on a missing name returns nil.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, contentType string) (Object, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Size(ctx context.Context, name string) (int64, error)
	Remove(ctx context.Context, name string) error
}

var safeExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)

// NewStoredName returns a collision resistant name that keeps the
// extension of original when it is filesystem safe.
func NewStoredName(original string) string {
	ext := filepath.Ext(filepath.Base(original))
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}
