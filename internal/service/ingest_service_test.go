package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevault/carevault/internal/extract"
	"github.com/carevault/carevault/internal/model"
	appErr "github.com/carevault/carevault/internal/pkg/errors"
)

type fakeDocStore struct {
	docs        map[string]*model.Document
	transitions []string
}

func (f *fakeDocStore) Get(ctx context.Context, docID string) (*model.Document, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocStore) UpdateEmbeddingStatus(ctx context.Context, docID, status string, processedAt, mtime int64) error {
	f.transitions = append(f.transitions, status)
	f.docs[docID].EmbeddingStatus = status
	return nil
}

func (f *fakeDocStore) ListPending(ctx context.Context, limit uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range f.docs {
		if doc.EmbeddingStatus == model.EmbeddingStatusPending {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

type fakeChunkStore struct {
	existing int
	replaced [][]model.DocumentChunk
	failNext bool
}

func (f *fakeChunkStore) CountByDocument(ctx context.Context, docID string) (int, error) {
	return f.existing, nil
}

func (f *fakeChunkStore) Replace(ctx context.Context, docID string, chunks []model.DocumentChunk) error {
	if f.failNext {
		return fmt.Errorf("db unavailable")
	}
	f.replaced = append(f.replaced, chunks)
	return nil
}

type fakeEmbedder struct {
	calls    int
	failCall map[int]bool
	failAll  bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	call := f.calls
	f.calls++
	if f.failAll || f.failCall[call] {
		return nil, fmt.Errorf("embedding backend error")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeFileFetcher struct {
	data []byte
	err  error
}

func (f *fakeFileFetcher) Fetch(ctx context.Context, doc *model.Document) ([]byte, error) {
	return f.data, f.err
}

func newTestDoc() *model.Document {
	return &model.Document{
		ID:              "doc-1",
		UserID:          "user-1",
		Title:           "Hemograma completo",
		FileName:        "hemograma.txt",
		FileType:        "text/plain",
		DocumentType:    "Lab Results",
		EmbeddingStatus: model.EmbeddingStatusPending,
	}
}

func newTestIngest(docs *fakeDocStore, chunks *fakeChunkStore, embedder *fakeEmbedder, fetcher *fakeFileFetcher, chunkSize int) *IngestService {
	return NewIngestService(docs, chunks, embedder, fetcher, extract.NewOrchestrator(nil), chunkSize, 50)
}

type emptyTextExtractor struct{}

func (emptyTextExtractor) Extract(ctx context.Context, src *extract.Source) (*extract.Result, error) {
	return &extract.Result{Text: "", Method: extract.MethodMetadataFallback, Quality: extract.QualityLow}, nil
}

func TestProcessDocumentSoftChunkFailure(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": newTestDoc()}}
	chunks := &fakeChunkStore{}
	embedder := &fakeEmbedder{failCall: map[int]bool{1: true}}
	svc := newTestIngest(docs, chunks, embedder, &fakeFileFetcher{data: []byte("notes")}, 100)

	result, err := svc.ProcessDocument(context.Background(), "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, ProcessStatusProcessed, result.Status)
	assert.Equal(t, result.ChunksAttempted-1, result.ChunksCreated)
	assert.Greater(t, result.ChunksAttempted, 2)

	require.Len(t, chunks.replaced, 1)
	stored := chunks.replaced[0]
	indexes := make(map[int]bool)
	for _, chunk := range stored {
		assert.Equal(t, result.ChunksAttempted, chunk.TotalChunks)
		assert.Equal(t, string(extract.MethodMetadataFallback), chunk.ExtractionMethod)
		assert.Equal(t, string(extract.QualityLow), chunk.ContentQuality)
		indexes[chunk.ChunkIndex] = true
	}
	assert.False(t, indexes[1], "failed chunk must not be persisted")
	assert.Equal(t, []string{model.EmbeddingStatusProcessing, model.EmbeddingStatusCompleted}, docs.transitions)
}

func TestProcessDocumentSkipsWhenChunksExist(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": newTestDoc()}}
	chunks := &fakeChunkStore{existing: 7}
	embedder := &fakeEmbedder{}
	svc := newTestIngest(docs, chunks, embedder, &fakeFileFetcher{data: []byte("notes")}, 100)

	result, err := svc.ProcessDocument(context.Background(), "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, ProcessStatusSkipped, result.Status)
	assert.Equal(t, 7, result.ChunksCreated)
	assert.Zero(t, embedder.calls)
	assert.Empty(t, chunks.replaced)
	assert.Empty(t, docs.transitions)
}

func TestProcessDocumentForceReplaces(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": newTestDoc()}}
	chunks := &fakeChunkStore{existing: 7}
	embedder := &fakeEmbedder{}
	svc := newTestIngest(docs, chunks, embedder, &fakeFileFetcher{data: []byte("notes")}, 100)

	result, err := svc.ProcessDocument(context.Background(), "doc-1", true)
	require.NoError(t, err)
	assert.Equal(t, ProcessStatusProcessed, result.Status)
	require.Len(t, chunks.replaced, 1)
	assert.Equal(t, result.ChunksCreated, len(chunks.replaced[0]))
}

func TestProcessDocumentFetchFailure(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": newTestDoc()}}
	chunks := &fakeChunkStore{}
	svc := newTestIngest(docs, chunks, &fakeEmbedder{}, &fakeFileFetcher{err: fmt.Errorf("404 Not Found")}, 100)

	result, err := svc.ProcessDocument(context.Background(), "doc-1", false)
	require.Error(t, err)
	assert.Equal(t, ProcessStatusFailed, result.Status)
	assert.Equal(t, []string{model.EmbeddingStatusProcessing, model.EmbeddingStatusFailed}, docs.transitions)
}

func TestProcessDocumentAllEmbeddingsFail(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": newTestDoc()}}
	chunks := &fakeChunkStore{}
	svc := newTestIngest(docs, chunks, &fakeEmbedder{failAll: true}, &fakeFileFetcher{data: []byte("notes")}, 100)

	result, err := svc.ProcessDocument(context.Background(), "doc-1", false)
	require.Error(t, err)
	assert.Equal(t, ProcessStatusFailed, result.Status)
	assert.Empty(t, chunks.replaced)
	assert.Equal(t, model.EmbeddingStatusFailed, docs.docs["doc-1"].EmbeddingStatus)
}

func TestProcessDocumentEmptyContentNotFatal(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": newTestDoc()}}
	chunks := &fakeChunkStore{}
	embedder := &fakeEmbedder{}
	svc := NewIngestService(docs, chunks, embedder, &fakeFileFetcher{data: []byte("notes")}, emptyTextExtractor{}, 100, 50)

	result, err := svc.ProcessDocument(context.Background(), "doc-1", false)
	require.NoError(t, err)
	assert.Equal(t, ProcessStatusProcessed, result.Status)
	assert.Zero(t, result.ChunksCreated)
	assert.Zero(t, embedder.calls)
	assert.Empty(t, chunks.replaced)
	assert.Equal(t, []string{model.EmbeddingStatusProcessing, model.EmbeddingStatusCompleted}, docs.transitions)
}

func TestProcessDocumentNotFound(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{}}
	svc := newTestIngest(docs, &fakeChunkStore{}, &fakeEmbedder{}, &fakeFileFetcher{}, 100)

	_, err := svc.ProcessDocument(context.Background(), "missing", false)
	assert.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestProcessPendingIsolatesFailures(t *testing.T) {
	good := newTestDoc()
	bad := newTestDoc()
	bad.ID = "doc-2"
	bad.FileName = "other.txt"
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": good, "doc-2": bad}}
	chunks := &fakeChunkStore{}
	// each doc synthesizes one metadata chunk; fail the second doc's embed
	embedder := &fakeEmbedder{failAll: false}
	svc := newTestIngest(docs, chunks, embedder, &fakeFileFetcher{data: []byte("notes")}, 100000)
	embedder.failCall = map[int]bool{1: true}

	summary, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Results, 2)
}
