package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/carevault/carevault/internal/model"
	"github.com/carevault/carevault/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT COUNT(1) FROM document_chunks WHERE document_id = ?",
		[]interface{}{docID},
	)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Replace swaps a document's chunk set in one transaction. Callers embed
// everything up front; a crash mid-replace can therefore never leave a
// mixed-method chunk set behind.
func (r *ChunkRepo) Replace(ctx context.Context, docID string, chunks []model.DocumentChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	delStr, delArgs := dbutil.Finalize(
		"DELETE FROM document_chunks WHERE document_id = ?",
		[]interface{}{docID},
	)
	if _, err := tx.ExecContext(ctx, delStr, delArgs...); err != nil {
		return err
	}
	for i := range chunks {
		chunk := &chunks[i]
		data := map[string]interface{}{
			"id":                chunk.ID,
			"document_id":       chunk.DocumentID,
			"user_id":           chunk.UserID,
			"chunk_index":       chunk.ChunkIndex,
			"total_chunks":      chunk.TotalChunks,
			"content":           chunk.Content,
			"embedding":         pgvector.NewVector(chunk.Embedding),
			"extraction_method": chunk.ExtractionMethod,
			"content_quality":   chunk.ContentQuality,
			"source_mime":       chunk.SourceMime,
			"processed_at":      chunk.ProcessedAt,
			"ctime":             chunk.Ctime,
		}
		sqlStr, args, err := builder.BuildInsert("document_chunks", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}
	return tx.Commit()
}

// SearchNearest ranks the owner's chunks by cosine distance to the query
// embedding. Similarity is 1 - distance; threshold filtering is left to the
// caller so it can report near-misses.
func (r *ChunkRepo) SearchNearest(ctx context.Context, userID string, query []float32, limit int) ([]model.ChunkMatch, error) {
	const sqlStr = `
		SELECT c.document_id, d.title, c.content, 1 - (c.embedding <=> $1) AS similarity
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = $2
		ORDER BY c.embedding <=> $1
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, pgvector.NewVector(query), userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	matches := make([]model.ChunkMatch, 0, limit)
	for rows.Next() {
		var m model.ChunkMatch
		if err := rows.Scan(&m.DocumentID, &m.DocumentTitle, &m.Content, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
