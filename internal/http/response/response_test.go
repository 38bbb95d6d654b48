package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedData    map[string]interface{}
	}{
		{"validation", domain.NewValidationError("name is required"), http.StatusBadRequest, "name is required", nil},
		{"conflict", domain.ErrIdentityExists, http.StatusConflict, "username or email already in use", nil},
		{"unauthorized", domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials", nil},
		{"wrapped not found", fmt.Errorf("lookup: %w", domain.ErrIdentityNotFound), http.StatusNotFound, "identity not found", nil},
		{"wrapped suspended", fmt.Errorf("worker gate: %w", domain.ErrAccountSuspended), http.StatusForbidden, "Account suspended. Contact support.", nil},
		{"wrapped twice", fmt.Errorf("verify: %w", fmt.Errorf("check: %w", domain.ErrOTPInvalid)), http.StatusBadRequest, "invalid otp", nil},
		{"locked", &domain.LockedError{Remaining: 90 * time.Second}, http.StatusLocked, "Account locked. Try again in 2 minutes.", map[string]interface{}{"retryAfterMinutes": float64(2)}},
		{"verification required", domain.ErrVerificationRequired, http.StatusForbidden, "Phone verification required. Please verify your phone number.", map[string]interface{}{"requiresVerification": true}},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, "too many requests", nil},
		{"internal hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)

			Error(c, zap.New(core), tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.expectedMessage, body["message"])
			if tt.expectedData == nil {
				assert.Nil(t, body["data"])
			} else {
				assert.Equal(t, tt.expectedData, body["data"])
			}

			if tt.expectedStatus == http.StatusInternalServerError {
				assert.Equal(t, 1, logs.Len())
			} else {
				assert.Equal(t, 0, logs.Len())
			}
		})
	}
}

func TestOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, "Login successful", gin.H{"accessToken": "abc"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "abc", body["data"].(map[string]interface{})["accessToken"])
}
