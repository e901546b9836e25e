// internal/api/handlers/autoaction_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/eroudini/AiMerchant-sub000/internal/api/middleware"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/eroudini/AiMerchant-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type AutoActionHandler struct {
	autoAction *service.AutoActionService
}

func NewAutoActionHandler(autoAction *service.AutoActionService) *AutoActionHandler {
	return &AutoActionHandler{autoAction: autoAction}
}

// Run executes an on-demand auto-action run. Without an account in the body
// or the X-Account-ID header every active account is processed.
func (h *AutoActionHandler) Run(c *gin.Context) {
	var params domain.RunParams
	if err := bindOptionalJSON(c, &params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if strings.TrimSpace(params.AccountID) == "" {
		params.AccountID = strings.TrimSpace(c.GetHeader(middleware.AccountHeader))
	}

	settings := h.autoAction.Resolve(params)
	res, err := h.autoAction.Run(c.Request.Context(), settings, domain.TriggerHTTP, service.ContinueOnError)
	if err != nil {
		respondError(c, "auto-action run failed", err)
		return
	}
	if settings.AccountID != "" && service.IsRunInProgress(res) {
		respondError(c, "auto-action run rejected", domain.ErrRunInProgress)
		return
	}

	c.JSON(http.StatusOK, res)
}
