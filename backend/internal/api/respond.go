package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "instaclone/backend/pkg/errors"
)

// statusOverrides replaces the default status of an error type for one route
type statusOverrides map[apperrors.ErrorType]int

var defaultStatus = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeValidation:   http.StatusBadRequest,
	apperrors.ErrorTypeNotFound:     http.StatusNotFound,
	apperrors.ErrorTypeUnauthorized: http.StatusUnauthorized,
	apperrors.ErrorTypeConflict:     http.StatusConflict,
	apperrors.ErrorTypeContext:      http.StatusGatewayTimeout,
}

// statusFor maps an error to an HTTP status; unknown and infrastructure
// errors become 500
func statusFor(err error, overrides statusOverrides) int {
	errType := apperrors.TypeOf(err)
	if status, ok := overrides[errType]; ok {
		return status
	}
	if status, ok := defaultStatus[errType]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respond writes a success envelope merged with payload
func respond(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// abort writes a failure envelope and stops the handler chain
func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// fail maps err to a status and a client-safe message. 5xx errors are logged
// with their full chain.
func (s *Server) fail(c *gin.Context, err error, overrides statusOverrides) {
	status := statusFor(err, overrides)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.String("error_type", string(apperrors.TypeOf(err))),
			zap.Bool("retryable", apperrors.IsRetryable(err)),
			zap.Error(err),
		)
	}
	abort(c, status, apperrors.PublicMessage(err))
}

// bindBody binds the request body into obj. An empty body binds to the zero
// value; a malformed one is answered with 400 and false is returned.
func bindBody(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
