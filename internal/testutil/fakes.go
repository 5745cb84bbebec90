package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// MemoryBlobStore is an in-memory storage.BlobStore. Set the Fail* maps to
// make individual names fail.
type MemoryBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	FailOpen   map[string]error
	FailRemove map[string]error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		objects:    make(map[string][]byte),
		FailOpen:   make(map[string]error),
		FailRemove: make(map[string]error),
	}
}

func (s *MemoryBlobStore) Put(_ context.Context, name string, r io.Reader, _ string) (storage.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = data
	return storage.Object{Name: name, Path: "mem://" + name, Size: int64(len(data))}, nil
}

func (s *MemoryBlobStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOpen[name]; err != nil {
		return nil, err
	}
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, storage.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryBlobStore) Size(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, storage.ErrObjectNotFound)
	}
	return int64(len(data)), nil
}

func (s *MemoryBlobStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailRemove[name]; err != nil {
		return err
	}
	delete(s.objects, name)
	return nil
}

// Has reports whether name is currently stored.
func (s *MemoryBlobStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	return ok
}

// Len reports how many objects are stored.
func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Drop deletes name behind the store's back, simulating lost bytes.
func (s *MemoryBlobStore) Drop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
}

// MemoryDocumentStore is an in-memory documents.Store with injectable
// write failures.
type MemoryDocumentStore struct {
	mu         sync.Mutex
	nextID     int64
	rows       map[int64]db.Document
	FailCreate error
	FailUpdate error
	FailDelete error
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{rows: make(map[int64]db.Document)}
}

func (s *MemoryDocumentStore) CreateDocument(_ context.Context, arg db.CreateDocumentParams) (db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return db.Document{}, s.FailCreate
	}
	s.nextID++
	row := db.Document{
		ID:           s.nextID,
		OriginalName: arg.OriginalName,
		StoredName:   arg.StoredName,
		MimeType:     arg.MimeType,
		StoragePath:  arg.StoragePath,
		UploadedAt:   pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	}
	s.rows[row.ID] = row
	return row, nil
}

func (s *MemoryDocumentStore) GetDocumentByID(_ context.Context, id int64) (db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return db.Document{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *MemoryDocumentStore) GetDocumentByStoredName(_ context.Context, storedName string) (db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.StoredName == storedName {
			return row, nil
		}
	}
	return db.Document{}, pgx.ErrNoRows
}

func (s *MemoryDocumentStore) ListDocuments(_ context.Context) ([]db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Document, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryDocumentStore) UpdateDocument(_ context.Context, arg db.UpdateDocumentParams) (db.UpdateDocumentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != nil {
		return db.UpdateDocumentRow{}, s.FailUpdate
	}
	row, ok := s.rows[arg.ID]
	if !ok {
		return db.UpdateDocumentRow{}, pgx.ErrNoRows
	}
	previous := row.StoredName
	row.OriginalName = arg.OriginalName
	row.StoredName = arg.StoredName
	row.MimeType = arg.MimeType
	row.StoragePath = arg.StoragePath
	s.rows[arg.ID] = row
	return db.UpdateDocumentRow{
		ID:                 row.ID,
		OriginalName:       row.OriginalName,
		StoredName:         row.StoredName,
		MimeType:           row.MimeType,
		StoragePath:        row.StoragePath,
		UploadedAt:         row.UploadedAt,
		PreviousStoredName: previous,
	}, nil
}

func (s *MemoryDocumentStore) DeleteDocument(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return 0, s.FailDelete
	}
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

// OrphanRecorder collects reported orphan names.
type OrphanRecorder struct {
	mu    sync.Mutex
	Names []string
}

func (r *OrphanRecorder) ReportOrphan(_ context.Context, storedName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Names = append(r.Names, storedName)
	return nil
}

func (r *OrphanRecorder) Reported() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Names...)
}
