package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"plaiful/internal/pkg/validator"
	"plaiful/internal/repository"
)

// FromError maps a service error onto the error envelope.
func FromError(c *gin.Context, err error) {
	var fields validator.FieldErrors
	switch {
	case errors.As(err, &fields):
		ValidationError(c, fields)
	case errors.Is(err, repository.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case repository.IsDuplicate(err):
		details := repository.Diagnostics(err)
		zap.L().Warn("constraint violation",
			zap.String("path", c.FullPath()),
			zap.Any("diagnostics", details),
		)
		ErrorWithDetails(c, http.StatusConflict, "DUPLICATE", "Resource already exists", details)
	default:
		_ = c.Error(err)
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
