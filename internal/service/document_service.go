package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/carevault/carevault/internal/filestore"
	"github.com/carevault/carevault/internal/model"
	appErr "github.com/carevault/carevault/internal/pkg/errors"
)

const maxUploadBytes = 50 << 20

// DocumentRepository is the user-facing slice of document storage. Batch
// processing goes through the unscoped DocumentStore instead.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, userID, docID string) (*model.Document, error)
	List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error)
	Delete(ctx context.Context, userID, docID string) error
}

type DocumentService struct {
	docs   DocumentRepository
	store  filestore.Store
	ingest *IngestService
}

func NewDocumentService(docs DocumentRepository, store filestore.Store, ingest *IngestService) *DocumentService {
	return &DocumentService{docs: docs, store: store, ingest: ingest}
}

type UploadInput struct {
	Title        string
	Description  string
	FileName     string
	FileType     string
	DocumentType string
	FileData     string
}

// Upload stores the file and registers the document in pending state, then
// kicks off processing inline. Processing failure does not fail the upload;
// the document stays visible with its failure status and can be reprocessed.
func (s *DocumentService) Upload(ctx context.Context, userID string, input UploadInput) (*model.Document, *ProcessResult, error) {
	if input.Title == "" || input.FileName == "" || input.FileData == "" {
		return nil, nil, appErr.ErrInvalid
	}
	mimeType, data, err := decodeDataURL(input.FileData)
	if err != nil {
		return nil, nil, appErr.ErrInvalid
	}
	if len(data) == 0 || len(data) > maxUploadBytes {
		return nil, nil, appErr.ErrInvalid
	}
	if input.FileType != "" {
		mimeType = input.FileType
	}

	now := time.Now()
	key := fmt.Sprintf("%s/%d-%s", userID, now.UnixMilli(), sanitizeFileName(input.FileName))
	if err := s.store.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, nil, fmt.Errorf("store file: %w", err)
	}

	doc := &model.Document{
		ID:              newID(),
		UserID:          userID,
		Title:           input.Title,
		Description:     input.Description,
		FileName:        input.FileName,
		FileKey:         key,
		FileType:        mimeType,
		FileSize:        int64(len(data)),
		DocumentType:    input.DocumentType,
		EmbeddingStatus: model.EmbeddingStatusPending,
		Ctime:           now.Unix(),
		Mtime:           now.Unix(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, nil, err
	}

	result, err := s.ingest.ProcessDocument(ctx, doc.ID, false)
	if err != nil {
		logutil.GetLogger(ctx).Warn("inline processing failed, document stays reprocessable",
			zap.String("doc_id", doc.ID), zap.Error(err))
	}
	return doc, result, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	return s.docs.GetByID(ctx, userID, docID)
}

func (s *DocumentService) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	return s.docs.List(ctx, userID, limit, offset)
}

// Delete removes the document row; chunks go with it via cascade. The stored
// file is left behind intentionally, key collisions are impossible.
func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	return s.docs.Delete(ctx, userID, docID)
}

// Reprocess re-runs the pipeline for one of the caller's documents. The
// ownership check happens here; the ingest service itself is user-agnostic.
func (s *DocumentService) Reprocess(ctx context.Context, userID, docID string, force bool) (*ProcessResult, error) {
	if _, err := s.docs.GetByID(ctx, userID, docID); err != nil {
		return nil, err
	}
	return s.ingest.ProcessDocument(ctx, docID, force)
}

func decodeDataURL(raw string) (string, []byte, error) {
	mimeType := "application/octet-stream"
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		idx := strings.Index(raw, ",")
		if idx < 0 {
			return "", nil, fmt.Errorf("malformed data url")
		}
		meta := raw[len("data:"):idx]
		payload = raw[idx+1:]
		if !strings.HasSuffix(meta, ";base64") {
			return "", nil, fmt.Errorf("unsupported data url encoding")
		}
		if mt := strings.TrimSuffix(meta, ";base64"); mt != "" {
			mimeType = mt
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mimeType, data, nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "file"
	}
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "file"
	}
	return sb.String()
}
