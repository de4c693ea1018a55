package model

// DocumentChunk is one embedded slice of a document's extracted text.
// ChunkIndex and TotalChunks are fixed at processing time and describe the
// attempt, not the stored rows: a chunk whose embedding failed is skipped,
// so indexes may have holes while TotalChunks keeps the attempted count.
type DocumentChunk struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"document_id"`
	UserID           string    `json:"user_id"`
	ChunkIndex       int       `json:"chunk_index"`
	TotalChunks      int       `json:"total_chunks"`
	Content          string    `json:"content"`
	Embedding        []float32 `json:"-"`
	ExtractionMethod string    `json:"extraction_method"`
	ContentQuality   string    `json:"content_quality"`
	SourceMime       string    `json:"source_mime"`
	ProcessedAt      int64     `json:"processed_at"`
	Ctime            int64     `json:"ctime"`
}

// ChunkMatch is one retrieval hit: chunk content joined with its parent
// document's title and the cosine similarity against the query embedding.
type ChunkMatch struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
}
