// internal/api/handlers/actions_handler.go
package handlers

import (
	"net/http"

	"github.com/eroudini/AiMerchant-sub000/internal/api/middleware"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/eroudini/AiMerchant-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type ActionsHandler struct {
	recommendations *service.RecommendationService
}

func NewActionsHandler(recommendations *service.RecommendationService) *ActionsHandler {
	return &ActionsHandler{recommendations: recommendations}
}

// GenerateRecommendations recomputes the draft purchase orders of the account.
func (h *ActionsHandler) GenerateRecommendations(c *gin.Context) {
	var req domain.GenerateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.recommendations.Generate(c.Request.Context(), middleware.AccountID(c), req)
	if err != nil {
		respondError(c, "failed to generate recommendations", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ListRecommendations returns the newest recommendations, optionally filtered.
func (h *ActionsHandler) ListRecommendations(c *gin.Context) {
	recs, err := h.recommendations.List(
		c.Request.Context(),
		middleware.AccountID(c),
		c.Query("status"),
		c.Query("type"),
		c.Query("country"),
	)
	if err != nil {
		respondError(c, "failed to list recommendations", err)
		return
	}

	c.JSON(http.StatusOK, recs)
}

// Execute marks draft recommendations as executed.
func (h *ActionsHandler) Execute(c *gin.Context) {
	var req domain.ExecuteRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.recommendations.Execute(c.Request.Context(), middleware.AccountID(c), req, service.SourceAPI)
	if err != nil {
		respondError(c, "failed to execute recommendations", err)
		return
	}

	c.JSON(http.StatusOK, res)
}
