package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/murmurwatch/murmur-backend/internal/services"
)

type AccountHandler struct {
	coordinationService services.CoordinationService
	botScoreService     services.BotScoreService
}

func NewAccountHandler(coordinationService services.CoordinationService, botScoreService services.BotScoreService) *AccountHandler {
	return &AccountHandler{
		coordinationService: coordinationService,
		botScoreService:     botScoreService,
	}
}

// GetEdges returns the coordination edges an account participates in, most
// recent windows first.
func (ah *AccountHandler) GetEdges(c *gin.Context) {
	accountID := c.Param("account_id")
	limit := queryInt(c, "limit", 100)

	edges, err := ah.coordinationService.GetAccountEdges(c.Request.Context(), accountID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "edges_failed", err)
		return
	}
	RespondOK(c, gin.H{"edges": edges, "count": len(edges)})
}

func (ah *AccountHandler) GetClusters(c *gin.Context) {
	accountID := c.Param("account_id")
	limit := queryInt(c, "limit", 50)

	clusters, err := ah.coordinationService.GetAccountClusters(c.Request.Context(), accountID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "clusters_failed", err)
		return
	}
	RespondOK(c, gin.H{"clusters": clusters, "count": len(clusters)})
}

func (ah *AccountHandler) GetBotScore(c *gin.Context) {
	accountID := c.Param("account_id")

	scores, err := ah.botScoreService.GetScores(c.Request.Context(), []string{accountID})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "score_failed", err)
		return
	}
	if len(scores) == 0 {
		RespondError(c, http.StatusNotFound, "score_not_found", nil)
		return
	}
	RespondOK(c, scores[0])
}

// AnalyzeBotScore runs the heuristic signals for one account on demand.
func (ah *AccountHandler) AnalyzeBotScore(c *gin.Context) {
	accountID := c.Param("account_id")

	score, err := ah.botScoreService.AnalyzeAccount(c.Request.Context(), accountID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return
	}
	RespondOK(c, score)
}

func (ah *AccountHandler) GetFlagged(c *gin.Context) {
	limit := queryInt(c, "limit", 100)

	scores, err := ah.botScoreService.GetFlagged(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "flagged_failed", err)
		return
	}
	RespondOK(c, gin.H{"accounts": scores, "count": len(scores)})
}
