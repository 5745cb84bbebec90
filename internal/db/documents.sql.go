package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createDocument = `-- name: CreateDocument :one
INSERT INTO documents (original_name, stored_name, mime_type, storage_path)
VALUES ($1, $2, $3, $4)
RETURNING id, original_name, stored_name, mime_type, storage_path, uploaded_at
`

type CreateDocumentParams struct {
	OriginalName string
	StoredName   string
	MimeType     string
	StoragePath  string
}

func (q *Queries) CreateDocument(ctx context.Context, arg CreateDocumentParams) (Document, error) {
	row := q.db.QueryRow(ctx, createDocument,
		arg.OriginalName,
		arg.StoredName,
		arg.MimeType,
		arg.StoragePath,
	)
	var i Document
	err := row.Scan(
		&i.ID,
		&i.OriginalName,
		&i.StoredName,
		&i.MimeType,
		&i.StoragePath,
		&i.UploadedAt,
	)
	return i, err
}

const deleteDocument = `-- name: DeleteDocument :execrows
DELETE FROM documents
WHERE id = $1
`

func (q *Queries) DeleteDocument(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteDocument, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getDocumentByID = `-- name: GetDocumentByID :one
SELECT id, original_name, stored_name, mime_type, storage_path, uploaded_at FROM documents
WHERE id = $1
`

func (q *Queries) GetDocumentByID(ctx context.Context, id int64) (Document, error) {
	row := q.db.QueryRow(ctx, getDocumentByID, id)
	var i Document
	err := row.Scan(
		&i.ID,
		&i.OriginalName,
		&i.StoredName,
		&i.MimeType,
		&i.StoragePath,
		&i.UploadedAt,
	)
	return i, err
}

const getDocumentByStoredName = `-- name: GetDocumentByStoredName :one
SELECT id, original_name, stored_name, mime_type, storage_path, uploaded_at FROM documents
WHERE stored_name = $1
`

func (q *Queries) GetDocumentByStoredName(ctx context.Context, storedName string) (Document, error) {
	row := q.db.QueryRow(ctx, getDocumentByStoredName, storedName)
	var i Document
	err := row.Scan(
		&i.ID,
		&i.OriginalName,
		&i.StoredName,
		&i.MimeType,
		&i.StoragePath,
		&i.UploadedAt,
	)
	return i, err
}

const listDocuments = `-- name: ListDocuments :many
SELECT id, original_name, stored_name, mime_type, storage_path, uploaded_at FROM documents
ORDER BY uploaded_at DESC, id DESC
`

func (q *Queries) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := q.db.Query(ctx, listDocuments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Document
	for rows.Next() {
		var i Document
		if err := rows.Scan(
			&i.ID,
			&i.OriginalName,
			&i.StoredName,
			&i.MimeType,
			&i.StoragePath,
			&i.UploadedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateDocument = `-- name: UpdateDocument :one
WITH previous AS (
    SELECT id, stored_name FROM documents
    WHERE id = $1
    FOR UPDATE
)
UPDATE documents AS d
SET original_name = $2,
    stored_name = $3,
    mime_type = $4,
    storage_path = $5
FROM previous
WHERE d.id = previous.id
RETURNING d.id, d.original_name, d.stored_name, d.mime_type, d.storage_path, d.uploaded_at, previous.stored_name AS previous_stored_name
`

type UpdateDocumentParams struct {
	ID           int64
	OriginalName string
	StoredName   string
	MimeType     string
	StoragePath  string
}

type UpdateDocumentRow struct {
	ID                 int64
	OriginalName       string
	StoredName         string
	MimeType           string
	StoragePath        string
	UploadedAt         pgtype.Timestamptz
	PreviousStoredName string
}

func (q *Queries) UpdateDocument(ctx context.Context, arg UpdateDocumentParams) (UpdateDocumentRow, error) {
	row := q.db.QueryRow(ctx, updateDocument,
		arg.ID,
		arg.OriginalName,
		arg.StoredName,
		arg.MimeType,
		arg.StoragePath,
	)
	var i UpdateDocumentRow
	err := row.Scan(
		&i.ID,
		&i.OriginalName,
		&i.StoredName,
		&i.MimeType,
		&i.StoragePath,
		&i.UploadedAt,
		&i.PreviousStoredName,
	)
	return i, err
}
