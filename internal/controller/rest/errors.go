package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"go.uber.org/zap"
)

var statusByKind = map[model.ErrorKind]int{
	model.KindValidation:          http.StatusUnprocessableEntity,
	model.KindConflict:            http.StatusConflict,
	model.KindNotFound:            http.StatusNotFound,
	model.KindAuthorization:       http.StatusForbidden,
	model.KindUpstreamUnavailable: http.StatusServiceUnavailable,
}

// respondError переводит доменную ошибку в HTTP ответ. Внутренние ошибки
// логируются, клиенту уходит только общий код.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := model.KindOf(err)

	status, ok := statusByKind[kind]
	if !ok {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	var details string
	if domainErr := (*model.Error)(nil); errors.As(err, &domainErr) {
		details = domainErr.Message
	}

	c.JSON(status, gin.H{"error": model.CodeOf(err), "details": details})
}
