package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/USSTM/doc-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func upload(name, content string) *testutil.FilePart {
	return &testutil.FilePart{Name: name, ContentType: "text/plain", Content: []byte(content)}
}

func TestDocumentRoutes_Authorization(t *testing.T) {
	t.Run("viewer cannot create", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/document",
			File:   upload("a.txt", "hello"),
		}, "viewer-token")

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, CodePermissionDenied, resp.ErrorCode())
		assert.Equal(t, 0, h.blobs.Len(), "nothing may be stored for a denied upload")
	})

	t.Run("missing token is rejected before grants are loaded", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.MakeRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, CodeAuthRequired, resp.ErrorCode())
		h.grants.AssertNotCalled(t, "ListGrantsByRole", mock.Anything, mock.Anything)
	})

	t.Run("invalid token is 401 even for a forbidden action", func(t *testing.T) {
		h := newTestHarness(t)
		h.jwt.ExpectValidateToken("expired-token", nil, errors.New("token expired"))

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodDelete,
			Path:   "/document/1",
		}, "expired-token")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		h.grants.AssertNotCalled(t, "ListGrantsByRole", mock.Anything, mock.Anything)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.MakeRequest(t, testutil.Request{
			Method:  http.MethodGet,
			Path:    "/document",
			Headers: map[string]string{"Authorization": "Token abc"},
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("editor cannot delete", func(t *testing.T) {
		h := newTestHarness(t)
		doc := h.seedDocument(t, "keep.txt", "keep")

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodDelete,
			Path:   "/document/1",
		}, "editor-token")

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.True(t, h.blobs.Has(doc.StoredName))
	})

	t.Run("viewer can list", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document",
		}, "viewer-token")

		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestDocumentRoutes_Lifecycle(t *testing.T) {
	h := newTestHarness(t)

	created := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodPost,
		Path:   "/document",
		File:   upload("a.txt", "first version"),
	}, "editor-token")
	require.Equal(t, http.StatusCreated, created.Code, string(created.Raw))
	testutil.AssertJSON(t, created, "message", "Document created successfully")

	document, ok := created.Body["document"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), document["id"])
	assert.Equal(t, "a.txt", document["name"])
	assert.Equal(t, "text/plain", document["mimeType"])

	row, err := h.store.GetDocumentByID(t.Context(), 1)
	require.NoError(t, err)
	oldStored := row.StoredName
	assert.True(t, h.blobs.Has(oldStored))
	assert.Regexp(t, `\.txt$`, oldStored)

	updated := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodPut,
		Path:   "/document/1",
		File:   upload("b.txt", "second version"),
	}, "editor-token")
	require.Equal(t, http.StatusOK, updated.Code, string(updated.Raw))
	testutil.AssertJSON(t, updated, "message", "Document updated")

	row, err = h.store.GetDocumentByID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", row.OriginalName)
	assert.NotEqual(t, oldStored, row.StoredName)
	assert.False(t, h.blobs.Has(oldStored), "old object should be removed after update")
	assert.Equal(t, 1, h.blobs.Len())

	download := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodGet,
		Path:   "/document/1",
	}, "viewer-token")
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "second version", string(download.Raw))
	assert.Equal(t, "text/plain", download.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=b.txt`, download.Header().Get("Content-Disposition"))

	listed := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodGet,
		Path:   "/document",
	}, "viewer-token")
	require.Equal(t, http.StatusOK, listed.Code)
	var listing []DocumentListingResponse
	listed.DecodeJSON(t, &listing)
	require.Len(t, listing, 1)
	assert.Equal(t, "b.txt", listing[0].Name)
	assert.Equal(t, "14 B", listing[0].Size)

	deleted := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodDelete,
		Path:   "/document/1",
	}, "admin-token")
	require.Equal(t, http.StatusOK, deleted.Code)
	testutil.AssertJSON(t, deleted, "message", "Document deleted")
	assert.Equal(t, 0, h.blobs.Len())

	again := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodDelete,
		Path:   "/document/1",
	}, "admin-token")
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Equal(t, CodeResourceNotFound, again.ErrorCode())
}

func TestGetDocument(t *testing.T) {
	t.Run("unknown id is not found", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document/42",
		}, "viewer-token")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, CodeResourceNotFound, resp.ErrorCode())
	})

	t.Run("missing object is storage corruption", func(t *testing.T) {
		h := newTestHarness(t)
		doc := h.seedDocument(t, "lost.txt", "gone")
		h.blobs.Drop(doc.StoredName)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document/1",
		}, "viewer-token")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, CodeStorageCorruption, resp.ErrorCode())
	})

	t.Run("filename with spaces is quoted", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedDocument(t, "quarterly report.txt", "numbers")

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document/1",
		}, "viewer-token")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, `attachment; filename="quarterly report.txt"`, resp.Header().Get("Content-Disposition"))
	})

	t.Run("non numeric id", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document/abc",
		}, "viewer-token")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
	})
}

func TestUpdateDocument(t *testing.T) {
	t.Run("unknown id removes the new upload", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPut,
			Path:   "/document/7",
			File:   upload("b.txt", "orphan"),
		}, "editor-token")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, 0, h.blobs.Len())
	})

	t.Run("empty replacement leaves the document untouched", func(t *testing.T) {
		h := newTestHarness(t)
		doc := h.seedDocument(t, "a.txt", "original")

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPut,
			Path:   "/document/1",
			File:   upload("b.txt", ""),
		}, "editor-token")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
		assert.Equal(t, 1, h.blobs.Len())
		assert.True(t, h.blobs.Has(doc.StoredName))

		row, err := h.store.GetDocumentByID(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", row.OriginalName)
		assert.Equal(t, doc.StoredName, row.StoredName)
	})

	t.Run("row failure keeps the old file retrievable", func(t *testing.T) {
		h := newTestHarness(t)
		doc := h.seedDocument(t, "a.txt", "original")
		h.store.FailUpdate = errors.New("connection reset")

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPut,
			Path:   "/document/1",
			File:   upload("b.txt", "replacement"),
		}, "editor-token")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, CodeInternalError, resp.ErrorCode())
		assert.Equal(t, 1, h.blobs.Len())
		assert.True(t, h.blobs.Has(doc.StoredName))

		h.store.FailUpdate = nil
		download := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/document/1",
		}, "viewer-token")
		require.Equal(t, http.StatusOK, download.Code)
		assert.Equal(t, "original", string(download.Raw))
	})
}

func TestCreateDocument_Validation(t *testing.T) {
	t.Run("oversized file is rejected and removed", func(t *testing.T) {
		h := newTestHarness(t, withMaxFileSize(8))

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/document",
			File:   upload("big.txt", "more than eight bytes"),
		}, "editor-token")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
		assert.Equal(t, 0, h.blobs.Len())
	})

	t.Run("empty file is rejected before any row is written", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/document",
			File:   upload("empty.txt", ""),
		}, "editor-token")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
		assert.Equal(t, 0, h.blobs.Len())
		_, err := h.store.GetDocumentByID(t.Context(), 1)
		assert.Error(t, err, "no row may reference an empty object")
	})

	t.Run("file at the limit is accepted", func(t *testing.T) {
		h := newTestHarness(t, withMaxFileSize(8))

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/document",
			File:   upload("ok.txt", "12345678"),
		}, "editor-token")

		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("json body instead of multipart", func(t *testing.T) {
		h := newTestHarness(t)

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/document",
			Body:   map[string]string{"file": "nope"},
		}, "editor-token")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
	})

	t.Run("row failure removes the upload", func(t *testing.T) {
		h := newTestHarness(t)
		h.store.FailCreate = errors.New("insert failed")

		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/document",
			File:   upload("a.txt", "bytes"),
		}, "editor-token")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, 0, h.blobs.Len())
	})
}

func TestListDocuments_MissingObject(t *testing.T) {
	h := newTestHarness(t)
	h.seedDocument(t, "present.txt", "here")
	lost := h.seedDocument(t, "lost.txt", "gone")
	h.blobs.Drop(lost.StoredName)

	resp := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodGet,
		Path:   "/document",
	}, "viewer-token")
	require.Equal(t, http.StatusOK, resp.Code)

	var listing []DocumentListingResponse
	resp.DecodeJSON(t, &listing)
	require.Len(t, listing, 2)

	sizes := map[string]string{}
	for _, l := range listing {
		sizes[l.Name] = l.Size
	}
	assert.Equal(t, "4 B", sizes["present.txt"])
	assert.Equal(t, "unavailable", sizes["lost.txt"])
}

func TestDocumentWrites_LogOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := newTestHarness(t)

	created := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodPost,
		Path:   "/document",
		File:   upload("a.txt", "hello"),
	}, "editor-token")
	require.Equal(t, http.StatusCreated, created.Code)

	updated := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodPut,
		Path:   "/document/1",
		File:   upload("b.txt", "hello again"),
	}, "editor-token")
	require.Equal(t, http.StatusOK, updated.Code)

	deleted := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodDelete,
		Path:   "/document/1",
	}, "admin-token")
	require.Equal(t, http.StatusOK, deleted.Code)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `msg="Document created"`))
	assert.Equal(t, 1, strings.Count(out, `msg="Document updated"`))
	assert.Equal(t, 1, strings.Count(out, `msg="Document deleted"`))
}
