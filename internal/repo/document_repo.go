package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/carevault/carevault/internal/model"
	"github.com/carevault/carevault/internal/pkg/dbutil"
	appErr "github.com/carevault/carevault/internal/pkg/errors"
)

var documentFields = []string{
	"id", "user_id", "title", "description", "file_name", "file_key",
	"file_type", "file_size", "document_type", "embedding_status",
	"embedding_processed_at", "ctime", "mtime",
}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":                     doc.ID,
		"user_id":                doc.UserID,
		"title":                  doc.Title,
		"description":            doc.Description,
		"file_name":              doc.FileName,
		"file_key":               doc.FileKey,
		"file_type":              doc.FileType,
		"file_size":              doc.FileSize,
		"document_type":          doc.DocumentType,
		"embedding_status":       doc.EmbeddingStatus,
		"embedding_processed_at": doc.EmbeddingProcessedAt,
		"ctime":                  doc.Ctime,
		"mtime":                  doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
	}
	return r.getOne(ctx, where)
}

// Get loads a document without a user scope. Batch processing owns documents
// across users; handlers must use GetByID.
func (r *DocumentRepo) Get(ctx context.Context, docID string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{"id": docID})
}

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanDocument(rows)
}

func (r *DocumentRepo) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	return r.listWhere(ctx, where)
}

// ListPending returns documents awaiting embedding across all users,
// oldest first so the backlog drains in arrival order.
func (r *DocumentRepo) ListPending(ctx context.Context, limit uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"embedding_status": model.EmbeddingStatusPending,
		"_orderby":         "ctime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	return r.listWhere(ctx, where)
}

func (r *DocumentRepo) listWhere(ctx context.Context, where map[string]interface{}) ([]model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateEmbeddingStatus moves a document through the processing lifecycle.
// processedAt is only written for terminal states; pass 0 to leave it.
func (r *DocumentRepo) UpdateEmbeddingStatus(ctx context.Context, docID, status string, processedAt, mtime int64) error {
	where := map[string]interface{}{"id": docID}
	update := map[string]interface{}{
		"embedding_status": status,
		"mtime":            mtime,
	}
	if processedAt > 0 {
		update["embedding_processed_at"] = processedAt
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string) error {
	sqlStr, args := dbutil.Finalize(
		"DELETE FROM documents WHERE id = ? AND user_id = ?",
		[]interface{}{docID, userID},
	)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(
		&doc.ID, &doc.UserID, &doc.Title, &doc.Description, &doc.FileName,
		&doc.FileKey, &doc.FileType, &doc.FileSize, &doc.DocumentType,
		&doc.EmbeddingStatus, &doc.EmbeddingProcessedAt, &doc.Ctime, &doc.Mtime,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}
