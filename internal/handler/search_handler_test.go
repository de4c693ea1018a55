package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevault/carevault/internal/middleware"
	"github.com/carevault/carevault/internal/model"
	"github.com/carevault/carevault/internal/pkg/jwt"
	"github.com/carevault/carevault/internal/service"
)

type stubSearcher struct {
	lastUserID string
	matches    []model.ChunkMatch
}

func (s *stubSearcher) SearchNearest(ctx context.Context, userID string, query []float32, limit int) ([]model.ChunkMatch, error) {
	s.lastUserID = userID
	return s.matches, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}

func newSearchRouter(t *testing.T, searcher *stubSearcher, secret []byte) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(secret))
	searchSvc := service.NewSearchService(searcher, stubEmbedder{}, 3, 0.7)
	authGroup.POST("/search", NewSearchHandler(searchSvc).Search)
	return router
}

func TestSearchEndpointScopedToCaller(t *testing.T) {
	secret := []byte("test-secret")
	searcher := &stubSearcher{matches: []model.ChunkMatch{
		{DocumentID: "d1", DocumentTitle: "Blood panel", Content: "hemoglobin 12.4", Similarity: 0.88},
	}}
	router := newSearchRouter(t, searcher, secret)

	token, err := jwt.GenerateToken("user-42", "care@example.com", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"hemoglobin"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", searcher.lastUserID)

	var body struct {
		Data struct {
			Results []model.ChunkMatch `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Results, 1)
	assert.Equal(t, "Blood panel", body.Data.Results[0].DocumentTitle)
}

func TestSearchEndpointRequiresAuth(t *testing.T) {
	router := newSearchRouter(t, &stubSearcher{}, []byte("test-secret"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
