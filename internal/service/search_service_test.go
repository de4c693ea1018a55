package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevault/carevault/internal/model"
)

type fakeChunkSearcher struct {
	matches []model.ChunkMatch
	userIDs []string
	err     error
}

func (f *fakeChunkSearcher) SearchNearest(ctx context.Context, userID string, query []float32, limit int) ([]model.ChunkMatch, error) {
	f.userIDs = append(f.userIDs, userID)
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.matches) {
		return f.matches[:limit], nil
	}
	return f.matches, nil
}

func TestSearchFiltersByThreshold(t *testing.T) {
	searcher := &fakeChunkSearcher{matches: []model.ChunkMatch{
		{DocumentID: "d1", DocumentTitle: "Blood panel", Content: "hemoglobin 12.4", Similarity: 0.91},
		{DocumentID: "d2", DocumentTitle: "Therapy notes", Content: "weekly session", Similarity: 0.72},
		{DocumentID: "d3", DocumentTitle: "Old scan", Content: "unrelated", Similarity: 0.41},
	}}
	svc := NewSearchService(searcher, &fakeEmbedder{}, 5, 0.7)

	results, err := svc.Search(context.Background(), "user-1", "hemoglobin levels")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].DocumentID)
	assert.Equal(t, "d2", results[1].DocumentID)
	assert.Equal(t, []string{"user-1"}, searcher.userIDs)
}

func TestSearchDegradesOnEmbedFailure(t *testing.T) {
	searcher := &fakeChunkSearcher{matches: []model.ChunkMatch{{Similarity: 0.9}}}
	svc := NewSearchService(searcher, &fakeEmbedder{failAll: true}, 3, 0.7)

	results, err := svc.Search(context.Background(), "user-1", "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, searcher.userIDs)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewSearchService(&fakeChunkSearcher{}, &fakeEmbedder{}, 3, 0.7)
	results, err := svc.Search(context.Background(), "user-1", "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCachesQueryEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := NewSearchService(&fakeChunkSearcher{}, embedder, 3, 0.7)

	_, err := svc.Search(context.Background(), "user-1", "same question")
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "user-2", "same question")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.calls)
}

func TestSearchPropagatesStoreError(t *testing.T) {
	searcher := &fakeChunkSearcher{err: fmt.Errorf("connection reset")}
	svc := NewSearchService(searcher, &fakeEmbedder{}, 3, 0.7)

	_, err := svc.Search(context.Background(), "user-1", "query")
	assert.Error(t, err)
}
