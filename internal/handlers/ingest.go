package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/murmurwatch/murmur-backend/internal/services"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type IngestHandler struct {
	ingestService services.IngestService
}

func NewIngestHandler(ingestService services.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

type ingestRequest struct {
	Accounts []*types.Account `json:"accounts"`
	Posts    []*types.Post    `json:"posts"`
}

// IngestBatch receives one collector delivery of accounts and posts.
func (ih *IngestHandler) IngestBatch(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	accounts, posts, err := ih.ingestService.IngestBatch(c.Request.Context(), req.Accounts, req.Posts)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}
	RespondOK(c, gin.H{"accounts": accounts, "posts": posts})
}
