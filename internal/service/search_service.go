package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/carevault/carevault/internal/model"
)

type ChunkSearcher interface {
	SearchNearest(ctx context.Context, userID string, query []float32, limit int) ([]model.ChunkMatch, error)
}

// SearchService answers similarity queries over a user's document chunks.
// Query embeddings are cached briefly since chat flows tend to re-embed the
// same question several times in a row.
type SearchService struct {
	chunks    ChunkSearcher
	embedder  Embedder
	cache     *expirable.LRU[string, []float32]
	topK      int
	threshold float64
}

func NewSearchService(chunks ChunkSearcher, embedder Embedder, topK int, threshold float64) *SearchService {
	if topK <= 0 {
		topK = 3
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &SearchService{
		chunks:    chunks,
		embedder:  embedder,
		cache:     expirable.NewLRU[string, []float32](256, nil, 10*time.Minute),
		topK:      topK,
		threshold: threshold,
	}
}

// Search returns the caller's chunks most similar to the query, strongest
// first, dropping matches below the similarity threshold. An embedding
// failure degrades to zero results rather than an error.
func (s *SearchService) Search(ctx context.Context, userID, query string) ([]model.ChunkMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.ChunkMatch{}, nil
	}
	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Warn("query embedding failed, returning no results", zap.Error(err))
		return []model.ChunkMatch{}, nil
	}
	matches, err := s.chunks.SearchNearest(ctx, userID, embedding, s.topK)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.ChunkMatch, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= s.threshold {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := cacheKey(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	embedding, err := s.embedder.Embed(ctx, query, TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, embedding)
	return embedding, nil
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
