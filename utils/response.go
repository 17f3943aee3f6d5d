package utils

import (
	"log/slog"
	"net/http"

	"calorietrack/apperrors"
	"calorietrack/logger"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Responder writes envelopes. In development mode error details are
// included in the "error" field.
type Responder struct {
	Dev bool
	log *slog.Logger
}

func NewResponder(dev bool, log *slog.Logger) *Responder {
	return &Responder{Dev: dev, log: logger.Module(log, "http")}
}

func (r *Responder) OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{Success: true, Message: message, Data: data})
}

// Fail maps err to a status and writes a failure envelope. fallback is the
// client message for errors that carry none.
func (r *Responder) Fail(c *gin.Context, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	body := APIResponse{Success: false, Message: apperrors.PublicMessage(err, fallback)}
	if r.Dev {
		body.Error = err.Error()
	}
	if status >= http.StatusInternalServerError {
		r.log.ErrorContext(c.Request.Context(), fallback, "path", c.FullPath(), "kind", apperrors.KindOf(err), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
