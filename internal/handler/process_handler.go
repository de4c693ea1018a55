package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carevault/carevault/internal/pkg/response"
	"github.com/carevault/carevault/internal/service"
)

type ProcessHandler struct {
	documents *service.DocumentService
	ingest    *service.IngestService
}

func NewProcessHandler(documents *service.DocumentService, ingest *service.IngestService) *ProcessHandler {
	return &ProcessHandler{documents: documents, ingest: ingest}
}

type processRequest struct {
	Force bool `json:"force"`
}

func (h *ProcessHandler) ProcessDocument(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	result, err := h.documents.Reprocess(c.Request.Context(), getUserID(c), c.Param("id"), req.Force)
	if err != nil {
		// a non-nil result means the pipeline itself failed, not the lookup
		if result != nil {
			response.Error(c, http.StatusInternalServerError, "processing_failed", result.Message)
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// ProcessPending drains the cross-user backlog; exposed for operators and
// also run on the cron schedule.
func (h *ProcessHandler) ProcessPending(c *gin.Context) {
	summary, err := h.ingest.ProcessPending(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *ProcessHandler) ProcessMine(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	summary, err := h.ingest.ProcessByUser(c.Request.Context(), getUserID(c), req.Force)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}
