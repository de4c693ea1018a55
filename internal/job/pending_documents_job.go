package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/carevault/carevault/internal/service"
)

// PendingDocumentsJob periodically retries documents still waiting for
// embeddings, typically ones whose inline processing at upload time was
// interrupted.
type PendingDocumentsJob struct {
	ingest *service.IngestService
}

func NewPendingDocumentsJob(ingest *service.IngestService) *PendingDocumentsJob {
	return &PendingDocumentsJob{ingest: ingest}
}

func (j *PendingDocumentsJob) Name() string {
	return "pending_documents"
}

func (j *PendingDocumentsJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	summary, err := j.ingest.ProcessPending(ctx)
	if err != nil {
		return err
	}
	if summary.Processed > 0 {
		logutil.GetLogger(ctx).Info("pending documents batch finished",
			zap.Int("processed", summary.Processed),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("failed", summary.Failed))
	}
	return nil
}
