// Package documents keeps a document's database row and its stored bytes
// consistent across create, update and delete.
//
// Bytes are always written before the row and removed before the row, so
// the only state that can survive a failure is an unreferenced object.
// Those orphans are reported for asynchronous cleanup; a row without an
// object is a fault and surfaces as apperr.ErrStorageCorruption.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// SizeUnavailable is listed for a document whose object cannot be stat'ed.
const SizeUnavailable = "unavailable"

const defaultListConcurrency = 8

type Document struct {
	ID           int64
	OriginalName string
	StoredName   string
	MimeType     string
	StoragePath  string
	UploadedAt   time.Time
}

// StoredFile describes bytes already written to the blob store.
type StoredFile struct {
	StoredName   string
	OriginalName string
	MimeType     string
	Path         string
}

type Summary struct {
	ID           int64
	OriginalName string
	MimeType     string
}

type Listing struct {
	ID         int64
	Name       string
	Size       string
	UploadedAt time.Time
}

// Store is the row side of a document.
type Store interface {
	CreateDocument(ctx context.Context, arg db.CreateDocumentParams) (db.Document, error)
	GetDocumentByID(ctx context.Context, id int64) (db.Document, error)
	ListDocuments(ctx context.Context) ([]db.Document, error)
	UpdateDocument(ctx context.Context, arg db.UpdateDocumentParams) (db.UpdateDocumentRow, error)
	DeleteDocument(ctx context.Context, id int64) (int64, error)
}

// OrphanReporter receives stored names whose removal failed.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, storedName string) error
}

type Manager struct {
	store           Store
	blobs           storage.BlobStore
	orphans         OrphanReporter
	listConcurrency int
}

// NewManager wires a manager. orphans may be nil, in which case failed
// cleanups are only logged.
func NewManager(store Store, blobs storage.BlobStore, orphans OrphanReporter) *Manager {
	return &Manager{
		store:           store,
		blobs:           blobs,
		orphans:         orphans,
		listConcurrency: defaultListConcurrency,
	}
}

// Create records a file whose bytes are already stored. When the insert
// fails the object is removed and the insert error returned.
func (m *Manager) Create(ctx context.Context, f StoredFile) (Summary, error) {
	row, err := m.store.CreateDocument(ctx, db.CreateDocumentParams{
		OriginalName: f.OriginalName,
		StoredName:   f.StoredName,
		MimeType:     f.MimeType,
		StoragePath:  f.Path,
	})
	if err != nil {
		m.discard(ctx, f.StoredName, "create failed")
		return Summary{}, fmt.Errorf("failed to save document: %w", err)
	}

	logging.FromContext(ctx).Info("Document created",
		"document_id", row.ID,
		"stored_name", row.StoredName)

	return Summary{ID: row.ID, OriginalName: row.OriginalName, MimeType: row.MimeType}, nil
}

func (m *Manager) Get(ctx context.Context, id int64) (Document, error) {
	row, err := m.store.GetDocumentByID(ctx, id)
	if err != nil {
		return Document{}, mapRowError(id, err)
	}
	return fromRow(row), nil
}

// Retrieve opens the stored bytes of a document. The caller closes the
// reader.
func (m *Manager) Retrieve(ctx context.Context, id int64) (Document, io.ReadCloser, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}

	rc, err := m.blobs.Open(ctx, doc.StoredName)
	if err != nil {
		logging.FromContext(ctx).Error("Stored object missing for document",
			"document_id", id,
			"stored_name", doc.StoredName,
			"error", err)
		return Document{}, nil, fmt.Errorf("document %d: %w: %w", id, apperr.ErrStorageCorruption, err)
	}
	return doc, rc, nil
}

// Update points the row at a newly stored file and then removes the
// object the row write actually replaced, which under concurrent updates
// may differ from the one loaded first. A failed row write removes the new
// object instead and leaves the old document intact.
func (m *Manager) Update(ctx context.Context, id int64, f StoredFile) (Document, error) {
	if _, err := m.Get(ctx, id); err != nil {
		m.discard(ctx, f.StoredName, "update target missing")
		return Document{}, err
	}

	row, err := m.store.UpdateDocument(ctx, db.UpdateDocumentParams{
		ID:           id,
		OriginalName: f.OriginalName,
		StoredName:   f.StoredName,
		MimeType:     f.MimeType,
		StoragePath:  f.Path,
	})
	if err != nil {
		m.discard(ctx, f.StoredName, "update failed")
		return Document{}, mapRowError(id, err)
	}

	if row.PreviousStoredName != row.StoredName {
		m.discard(ctx, row.PreviousStoredName, "replaced")
	}

	logging.FromContext(ctx).Info("Document updated",
		"document_id", id,
		"old_stored_name", row.PreviousStoredName,
		"stored_name", row.StoredName)

	return fromRow(db.Document{
		ID:           row.ID,
		OriginalName: row.OriginalName,
		StoredName:   row.StoredName,
		MimeType:     row.MimeType,
		StoragePath:  row.StoragePath,
		UploadedAt:   row.UploadedAt,
	}), nil
}

// Delete removes the object first and then the row. If the object cannot
// be removed the row is kept so the document stays retrievable.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := m.blobs.Remove(ctx, doc.StoredName); err != nil {
		return fmt.Errorf("failed to remove stored object for document %d: %w", id, err)
	}

	n, err := m.store.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("document %d: %w", id, apperr.ErrNotFound)
	}

	logging.FromContext(ctx).Info("Document deleted",
		"document_id", id,
		"stored_name", doc.StoredName)
	return nil
}

// List returns every document with a human readable size read from the
// blob store at call time.
func (m *Manager) List(ctx context.Context) ([]Listing, error) {
	rows, err := m.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	logger := logging.FromContext(ctx)
	out := make([]Listing, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.listConcurrency)
	for i, row := range rows {
		out[i] = Listing{
			ID:         row.ID,
			Name:       row.OriginalName,
			UploadedAt: row.UploadedAt.Time,
		}
		g.Go(func() error {
			size, err := m.blobs.Size(gctx, row.StoredName)
			if err != nil {
				logger.Warn("Stored object unavailable while listing",
					"document_id", row.ID,
					"stored_name", row.StoredName,
					"error", err)
				out[i].Size = SizeUnavailable
				return nil
			}
			out[i].Size = humanize.Bytes(uint64(size))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// discard removes an object that no row references. Failures are logged
// and handed to the orphan reporter, never returned.
func (m *Manager) discard(ctx context.Context, storedName, reason string) {
	if storedName == "" {
		return
	}
	logger := logging.FromContext(ctx)

	err := m.blobs.Remove(ctx, storedName)
	if err == nil {
		return
	}
	logger.Warn("Failed to remove unreferenced object",
		"stored_name", storedName,
		"reason", reason,
		"error", err)

	if m.orphans == nil {
		return
	}
	if err := m.orphans.ReportOrphan(ctx, storedName); err != nil {
		logger.Error("Failed to report orphaned object",
			"stored_name", storedName,
			"error", err)
	}
}

func mapRowError(id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("document %d: %w", id, apperr.ErrNotFound)
	}
	return fmt.Errorf("failed to load document %d: %w", id, err)
}

func fromRow(row db.Document) Document {
	return Document{
		ID:           row.ID,
		OriginalName: row.OriginalName,
		StoredName:   row.StoredName,
		MimeType:     row.MimeType,
		StoragePath:  row.StoragePath,
		UploadedAt:   row.UploadedAt.Time,
	}
}
