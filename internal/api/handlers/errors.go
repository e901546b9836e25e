package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors to status codes.
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrAccountRequired):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRunInProgress):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

// bindOptionalJSON decodes the request body into dst; an empty body keeps
// the zero value.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
