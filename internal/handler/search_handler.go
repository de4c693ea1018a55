package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carevault/carevault/internal/pkg/response"
	"github.com/carevault/carevault/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	matches, err := h.search.Search(c.Request.Context(), getUserID(c), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": matches})
}
