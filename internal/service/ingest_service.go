package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/carevault/carevault/internal/extract"
	"github.com/carevault/carevault/internal/model"
)

// Embedding task types, passed through to providers that distinguish them.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

type DocumentStore interface {
	Get(ctx context.Context, docID string) (*model.Document, error)
	UpdateEmbeddingStatus(ctx context.Context, docID, status string, processedAt, mtime int64) error
	ListPending(ctx context.Context, limit uint) ([]model.Document, error)
	List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error)
}

type ChunkStore interface {
	CountByDocument(ctx context.Context, docID string) (int, error)
	Replace(ctx context.Context, docID string, chunks []model.DocumentChunk) error
}

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, src *extract.Source) (*extract.Result, error)
}

// Statuses reported per processed document.
const (
	ProcessStatusProcessed = "processed"
	ProcessStatusSkipped   = "skipped"
	ProcessStatusFailed    = "failed"
)

type ProcessResult struct {
	DocumentID       string `json:"document_id"`
	Status           string `json:"status"`
	ChunksCreated    int    `json:"chunks_created"`
	ChunksAttempted  int    `json:"chunks_attempted"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
	ContentQuality   string `json:"content_quality,omitempty"`
	Message          string `json:"message,omitempty"`
}

type BatchSummary struct {
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []ProcessResult `json:"results"`
}

// IngestService owns the document processing pipeline: fetch bytes, extract
// text, chunk, embed, persist. Every entry point (upload, manual reprocess,
// batch) funnels into ProcessDocument.
type IngestService struct {
	docs         DocumentStore
	chunks       ChunkStore
	embedder     Embedder
	fetcher      FileFetcher
	orchestrator TextExtractor
	maxChunkSize int
	batchLimit   uint
}

func NewIngestService(docs DocumentStore, chunks ChunkStore, embedder Embedder, fetcher FileFetcher, orchestrator TextExtractor, maxChunkSize int, batchLimit int) *IngestService {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	return &IngestService{
		docs:         docs,
		chunks:       chunks,
		embedder:     embedder,
		fetcher:      fetcher,
		orchestrator: orchestrator,
		maxChunkSize: maxChunkSize,
		batchLimit:   uint(batchLimit),
	}
}

// ProcessDocument runs the full pipeline for one document. With force unset
// it no-ops when chunks already exist; with force set it rebuilds the chunk
// set. Terminal failures mark the document failed and are returned; there is
// no automatic retry.
func (s *IngestService) ProcessDocument(ctx context.Context, docID string, force bool) (*ProcessResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", docID), zap.Bool("force", force))

	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !force {
		count, err := s.chunks.CountByDocument(ctx, docID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			logger.Info("document already processed, skipping", zap.Int("existing_chunks", count))
			return &ProcessResult{
				DocumentID:    docID,
				Status:        ProcessStatusSkipped,
				ChunksCreated: count,
				Message:       "document already has embeddings",
			}, nil
		}
	}

	s.setStatus(ctx, docID, model.EmbeddingStatusProcessing, 0)

	data, err := s.fetcher.Fetch(ctx, doc)
	if err != nil {
		s.setStatus(ctx, docID, model.EmbeddingStatusFailed, time.Now().Unix())
		return s.failResult(docID, err), fmt.Errorf("fetch file: %w", err)
	}

	src := &extract.Source{
		Title:    doc.Title,
		FileName: doc.FileName,
		MimeType: doc.FileType,
		DocType:  doc.DocumentType,
		Data:     data,
	}
	extracted, err := s.orchestrator.Extract(ctx, src)
	if err != nil {
		s.setStatus(ctx, docID, model.EmbeddingStatusFailed, time.Now().Unix())
		return s.failResult(docID, err), fmt.Errorf("extract text: %w", err)
	}

	pieces := extract.SplitText(extracted.Text, s.maxChunkSize)
	total := len(pieces)
	if total == 0 {
		// nothing to embed is a reportable outcome, not a failure
		s.setStatus(ctx, docID, model.EmbeddingStatusCompleted, time.Now().Unix())
		logger.Info("document has no content to embed",
			zap.String("method", string(extracted.Method)))
		return &ProcessResult{
			DocumentID:       docID,
			Status:           ProcessStatusProcessed,
			ExtractionMethod: string(extracted.Method),
			ContentQuality:   string(extracted.Quality),
			Message:          "no content to embed",
		}, nil
	}

	now := time.Now().Unix()
	stored := make([]model.DocumentChunk, 0, total)
	for i, piece := range pieces {
		embedding, err := s.embedder.Embed(ctx, piece, TaskTypeDocument)
		if err != nil {
			logger.Warn("chunk embedding failed, skipping chunk",
				zap.Int("chunk_index", i), zap.Error(err))
			continue
		}
		stored = append(stored, model.DocumentChunk{
			ID:               newID(),
			DocumentID:       docID,
			UserID:           doc.UserID,
			ChunkIndex:       i,
			TotalChunks:      total,
			Content:          piece,
			Embedding:        embedding,
			ExtractionMethod: string(extracted.Method),
			ContentQuality:   string(extracted.Quality),
			SourceMime:       doc.FileType,
			ProcessedAt:      now,
			Ctime:            now,
		})
	}
	if len(stored) == 0 {
		s.setStatus(ctx, docID, model.EmbeddingStatusFailed, time.Now().Unix())
		err := fmt.Errorf("all %d chunk embeddings failed", total)
		return s.failResult(docID, err), err
	}

	if err := s.chunks.Replace(ctx, docID, stored); err != nil {
		s.setStatus(ctx, docID, model.EmbeddingStatusFailed, time.Now().Unix())
		return s.failResult(docID, err), fmt.Errorf("store chunks: %w", err)
	}
	s.setStatus(ctx, docID, model.EmbeddingStatusCompleted, time.Now().Unix())

	logger.Info("document processed",
		zap.String("method", string(extracted.Method)),
		zap.String("quality", string(extracted.Quality)),
		zap.Int("chunks_created", len(stored)),
		zap.Int("chunks_attempted", total))
	return &ProcessResult{
		DocumentID:       docID,
		Status:           ProcessStatusProcessed,
		ChunksCreated:    len(stored),
		ChunksAttempted:  total,
		ExtractionMethod: string(extracted.Method),
		ContentQuality:   string(extracted.Quality),
	}, nil
}

// ProcessPending drains the pending backlog across users, one document at a
// time. Per-document failures are recorded and do not stop the batch.
func (s *IngestService) ProcessPending(ctx context.Context) (*BatchSummary, error) {
	docs, err := s.docs.ListPending(ctx, s.batchLimit)
	if err != nil {
		return nil, err
	}
	return s.processBatch(ctx, docs, false), nil
}

func (s *IngestService) ProcessByUser(ctx context.Context, userID string, force bool) (*BatchSummary, error) {
	docs, err := s.docs.List(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	return s.processBatch(ctx, docs, force), nil
}

func (s *IngestService) processBatch(ctx context.Context, docs []model.Document, force bool) *BatchSummary {
	summary := &BatchSummary{Results: make([]ProcessResult, 0, len(docs))}
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return summary
		default:
		}
		summary.Processed++
		result, err := s.ProcessDocument(ctx, doc.ID, force)
		if err != nil {
			summary.Failed++
			if result == nil {
				result = s.failResult(doc.ID, err)
			}
			summary.Results = append(summary.Results, *result)
			continue
		}
		summary.Succeeded++
		summary.Results = append(summary.Results, *result)
	}
	return summary
}

// setStatus is best-effort: a missed transition leaves stale bookkeeping but
// must not abort processing.
func (s *IngestService) setStatus(ctx context.Context, docID, status string, processedAt int64) {
	if err := s.docs.UpdateEmbeddingStatus(ctx, docID, status, processedAt, time.Now().Unix()); err != nil {
		logutil.GetLogger(ctx).Warn("update embedding status failed",
			zap.String("doc_id", docID), zap.String("status", status), zap.Error(err))
	}
}

func (s *IngestService) failResult(docID string, err error) *ProcessResult {
	return &ProcessResult{
		DocumentID: docID,
		Status:     ProcessStatusFailed,
		Message:    err.Error(),
	}
}
