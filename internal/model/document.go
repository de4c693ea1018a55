package model

// Embedding lifecycle states for a document.
const (
	EmbeddingStatusPending    = "pending"
	EmbeddingStatusProcessing = "processing"
	EmbeddingStatusCompleted  = "completed"
	EmbeddingStatusFailed     = "failed"
)

type Document struct {
	ID                   string `json:"id"`
	UserID               string `json:"user_id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	FileName             string `json:"file_name"`
	FileKey              string `json:"file_key"`
	FileType             string `json:"file_type"`
	FileSize             int64  `json:"file_size"`
	DocumentType         string `json:"document_type"`
	EmbeddingStatus      string `json:"embedding_status"`
	EmbeddingProcessedAt int64  `json:"embedding_processed_at"`
	Ctime                int64  `json:"ctime"`
	Mtime                int64  `json:"mtime"`
}
