package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/danielpatrickdp/npc-companion/internal/apperrors"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the error part of the envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString(requestIDKey),
	})
}

// respondError maps err through apperrors. Untyped errors become 500 with a
// generic message.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    apperrors.CodeOf(err),
			Message: apperrors.PublicMessage(err),
		},
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString(requestIDKey),
	})
}

// requestID propagates or assigns X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func notFoundRoute(c *gin.Context) {
	respondError(c, apperrors.NotFound("route not found", nil))
}

func ok(c *gin.Context, data interface{}) { respond(c, http.StatusOK, data) }
