// Package respond writes the JSON envelopes every handler shares.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rec-admin-backend/internal/shared/telemetry"
)

// ErrorBody is the payload under "error".
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs the failure and aborts with a standardized error envelope.
// 5xx responses are logged at error level, the rest at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	reqID := c.GetString("requestId")
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"route":      c.FullPath(),
		"method":     c.Request.Method,
		"request_id": reqID,
	}
	if id := c.Param("rec_resource_id"); id != "" {
		fields["rec_resource_id"] = id
	}
	if assetID := c.GetString("assetId"); assetID != "" {
		fields["asset_id"] = assetID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			RequestID: reqID,
			Details:   details,
		},
	})
}

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 response.
func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}
