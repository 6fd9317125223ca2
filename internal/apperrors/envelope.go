package apperrors

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope is the standard error body every non-2xx response carries, apart
// from the 401 that middleware.AuthRequired answers with {error, status}.
type Envelope struct {
	Timestamp string                 `json:"timestamp"`
	Status    int                    `json:"status"`
	Error     string                 `json:"error"`
	ErrorCode string                 `json:"errorCode"`
	Message   string                 `json:"message"`
	Path      string                 `json:"path"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Respond translates any service error into the standard envelope. Errors that
// are not AppErrors become opaque 500s so internals never leak to clients.
func Respond(c *gin.Context, err error) {
	appErr := As(err)
	if appErr == nil {
		appErr = Internal("INTERNAL_SERVER_ERROR", "an unexpected error occurred")
	}
	c.JSON(appErr.Status, Envelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    appErr.Status,
		Error:     http.StatusText(appErr.Status),
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Path:      c.Request.URL.Path,
		Details:   appErr.Details,
	})
}
