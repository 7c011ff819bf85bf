package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

// statusFor переводит доменную ошибку в HTTP-статус.
func statusFor(err error) int {
	if _, ok := validation.As(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRecordLocked):
		return http.StatusConflict
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidSuperuserFlags):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError отвечает на ошибку в JSON API.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if ve, ok := validation.As(err); ok {
		c.JSON(status, gin.H{"errors": ve.Fields})
		return
	}
	if status == http.StatusInternalServerError {
		h.Logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pageError делает то же для HTML-страниц: короткий текст со статусом.
func (h *Handler) pageError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		c.String(status, "not found")
	case http.StatusConflict:
		c.String(status, "record is locked")
	case http.StatusForbidden:
		c.String(status, "access denied")
	case http.StatusInternalServerError:
		h.Logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.String(status, "internal error")
	default:
		c.String(status, err.Error())
	}
}
