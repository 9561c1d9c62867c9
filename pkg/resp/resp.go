package resp

import (
	"net/http"

	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "kind": apperr.KindValidation, "error": msg})
}

// Error maps an error kind to its HTTP status. Unclassified errors are
// logged and surfaced as a generic 500.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindInvalidTransition, apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindBusinessRule:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
		logger.L().Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{"ok": false, "kind": kind, "error": apperr.Message(err)})
}
