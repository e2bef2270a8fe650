package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorResponse is the standardized error envelope.
type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, statusCode int, errorCode, message string, details any) {
	c.JSON(statusCode, errorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

func respondBadRequest(c *gin.Context, message string, details any) {
	respondError(c, http.StatusBadRequest, "bad_request", message, details)
}
