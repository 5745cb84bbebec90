package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/documents"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// multipart framing allowance on top of the file limit
const multipartOverhead = 64 << 10

type DocumentSummaryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type CreateDocumentResponse struct {
	Message  string                  `json:"message"`
	Document DocumentSummaryResponse `json:"document"`
}

type DocumentListingResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Size       string    `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	file, err := s.receiveUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.documents.Create(r.Context(), file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateDocumentResponse{
		Message: "Document created successfully",
		Document: DocumentSummaryResponse{
			ID:       summary.ID,
			Name:     summary.OriginalName,
			MimeType: summary.MimeType,
		},
	})
}

func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	listings, err := s.documents.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]DocumentListingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, DocumentListingResponse{
			ID:         l.ID,
			Name:       l.Name,
			Size:       l.Size,
			UploadedAt: l.UploadedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDocument streams the stored file as an attachment.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, body, err := s.documents.Retrieve(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.OriginalName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(r.Context()).Warn("Document stream interrupted", "document_id", id, "error", err)
	}
}

func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := s.receiveUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := s.documents.Update(r.Context(), id, file); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Document updated"})
}

func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.documents.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Document deleted"})
}

// receiveUpload streams the "file" part of a multipart body into the blob
// store under a fresh stored name. Oversized files are removed again.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (documents.StoredFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileSize+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return documents.StoredFile{}, fmt.Errorf("expected multipart/form-data: %w", apperr.ErrValidation)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return documents.StoredFile{}, fmt.Errorf("file is required: %w", apperr.ErrValidation)
		}
		if err != nil {
			return documents.StoredFile{}, fmt.Errorf("malformed multipart body: %w", apperr.ErrValidation)
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		file, err := s.storePart(r, part.FileName(), part.Header.Get("Content-Type"), part)
		part.Close()
		return file, err
	}
}

func (s *Server) storePart(r *http.Request, filename, contentType string, body io.Reader) (documents.StoredFile, error) {
	originalName := filepath.Base(filepath.Clean("/" + filepath.ToSlash(filename)))
	storedName := storage.NewStoredName(originalName)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(originalName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	limited := &io.LimitedReader{R: body, N: s.maxFileSize + 1}
	obj, err := s.blobs.Put(r.Context(), storedName, limited, contentType)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return documents.StoredFile{}, fmt.Errorf("file exceeds maximum size of %s: %w", humanize.Bytes(uint64(s.maxFileSize)), apperr.ErrValidation)
		}
		return documents.StoredFile{}, fmt.Errorf("storing upload: %w", err)
	}

	if limited.N <= 0 {
		s.discardUpload(r, storedName, "oversized")
		return documents.StoredFile{}, fmt.Errorf("file exceeds maximum size of %s: %w", humanize.Bytes(uint64(s.maxFileSize)), apperr.ErrValidation)
	}
	if obj.Size == 0 {
		s.discardUpload(r, storedName, "empty")
		return documents.StoredFile{}, fmt.Errorf("file is empty: %w", apperr.ErrValidation)
	}

	return documents.StoredFile{
		StoredName:   storedName,
		OriginalName: originalName,
		MimeType:     contentType,
		Path:         obj.Path,
	}, nil
}

// discardUpload removes an object that was rejected before any row
// referenced it.
func (s *Server) discardUpload(r *http.Request, storedName, reason string) {
	if err := s.blobs.Remove(r.Context(), storedName); err != nil {
		logging.FromContext(r.Context()).Warn("Failed to remove rejected upload", "stored_name", storedName, "reason", reason, "error", err)
	}
}

func documentID(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid document id: %w", apperr.ErrValidation)
	}
	return id, nil
}
