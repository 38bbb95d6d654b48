// Package response writes the {success, message, data} envelope used by every endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

const internalMessage = "Internal server error"

var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindConflict:     http.StatusConflict,
	domain.KindUnauthorized: http.StatusUnauthorized,
	domain.KindLocked:       http.StatusLocked,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindRateLimited:  http.StatusTooManyRequests,
	domain.KindInternal:     http.StatusInternalServerError,
}

// JSON writes the envelope; success follows the status code
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": status < http.StatusBadRequest,
		"message": message,
		"data":    data,
	})
}

// OK writes a 200 envelope
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// Status maps an error to its HTTP status
func Status(err error) int {
	return statusByKind[domain.KindOf(err)]
}

// Error writes the envelope for err and aborts the chain.
// Internal errors are logged and never echoed to the client.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		JSON(c, status, internalMessage, nil)
		c.Abort()
		return
	}

	JSON(c, status, Message(err), extra(err))
	c.Abort()
}

// messageBySentinel overrides the sentinel text where clients get friendlier wording
var messageBySentinel = map[error]string{
	domain.ErrAccountSuspended:     "Account suspended. Contact support.",
	domain.ErrAccountDeactivated:   "Account deactivated. Please reactivate your account.",
	domain.ErrVerificationRequired: "Phone verification required. Please verify your phone number.",
	domain.ErrPendingApproval:      "Account pending admin approval.",
	domain.ErrInvalidCredentials:   "Invalid credentials",
	domain.ErrStaleToken:           "Token expired, please login again",
}

// Message returns the client-facing text of a classified error.
// Wrapping context is dropped; only the matched sentinel's text is used.
func Message(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var le *domain.LockedError
	if errors.As(err, &le) {
		return le.Error()
	}
	sentinel := domain.Sentinel(err)
	if sentinel == nil {
		return internalMessage
	}
	if msg, ok := messageBySentinel[sentinel]; ok {
		return msg
	}
	return sentinel.Error()
}

func extra(err error) interface{} {
	var le *domain.LockedError
	switch {
	case errors.As(err, &le):
		return gin.H{"retryAfterMinutes": le.RemainingMinutes()}
	case errors.Is(err, domain.ErrVerificationRequired):
		return gin.H{"requiresVerification": true}
	case errors.Is(err, domain.ErrPendingApproval):
		return gin.H{"accountStatus": string(domain.StatusPendingApproval)}
	}
	return nil
}
