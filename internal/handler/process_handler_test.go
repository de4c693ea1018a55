package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevault/carevault/internal/extract"
	"github.com/carevault/carevault/internal/model"
	appErr "github.com/carevault/carevault/internal/pkg/errors"
	"github.com/carevault/carevault/internal/service"
)

type stubDocRepo struct {
	docs map[string]*model.Document
}

func (s *stubDocRepo) Create(ctx context.Context, doc *model.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *stubDocRepo) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return doc, nil
}

func (s *stubDocRepo) Get(ctx context.Context, docID string) (*model.Document, error) {
	doc, ok := s.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return doc, nil
}

func (s *stubDocRepo) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	return nil, nil
}

func (s *stubDocRepo) ListPending(ctx context.Context, limit uint) ([]model.Document, error) {
	return nil, nil
}

func (s *stubDocRepo) UpdateEmbeddingStatus(ctx context.Context, docID, status string, processedAt, mtime int64) error {
	return nil
}

func (s *stubDocRepo) Delete(ctx context.Context, userID, docID string) error {
	return nil
}

type stubChunkRepo struct {
	existing int
}

func (s *stubChunkRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	return s.existing, nil
}

func (s *stubChunkRepo) Replace(ctx context.Context, docID string, chunks []model.DocumentChunk) error {
	return nil
}

type stubFetcher struct {
	data []byte
	err  error
}

func (s *stubFetcher) Fetch(ctx context.Context, doc *model.Document) ([]byte, error) {
	return s.data, s.err
}

func newProcessRouter(docs *stubDocRepo, chunks *stubChunkRepo, fetcher *stubFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ingest := service.NewIngestService(docs, chunks, stubEmbedder{}, fetcher, extract.NewOrchestrator(nil), 100, 10)
	documents := service.NewDocumentService(docs, nil, ingest)
	h := NewProcessHandler(documents, ingest)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", "user-1") })
	router.POST("/documents/:id/process", h.ProcessDocument)
	return router
}

func reprocessRequest(router *gin.Engine, docID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/documents/"+docID+"/process", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessDocumentFailureReturnsErrorEnvelope(t *testing.T) {
	docs := &stubDocRepo{docs: map[string]*model.Document{
		"doc-1": {ID: "doc-1", UserID: "user-1", Title: "Lab report", FileName: "lab.txt", FileType: "text/plain"},
	}}
	router := newProcessRouter(docs, &stubChunkRepo{}, &stubFetcher{err: fmt.Errorf("storage gone")})

	w := reprocessRequest(router, "doc-1")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "processing_failed", body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

func TestProcessDocumentAlreadyProcessedReturnsSkipped(t *testing.T) {
	docs := &stubDocRepo{docs: map[string]*model.Document{
		"doc-1": {ID: "doc-1", UserID: "user-1", Title: "Lab report", FileName: "lab.txt", FileType: "text/plain"},
	}}
	router := newProcessRouter(docs, &stubChunkRepo{existing: 3}, &stubFetcher{data: []byte("notes")})

	w := reprocessRequest(router, "doc-1")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, service.ProcessStatusSkipped, body.Data.Status)
}

func TestProcessDocumentUnknownReturnsNotFound(t *testing.T) {
	docs := &stubDocRepo{docs: map[string]*model.Document{}}
	router := newProcessRouter(docs, &stubChunkRepo{}, &stubFetcher{})

	w := reprocessRequest(router, "missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
