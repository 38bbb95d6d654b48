package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/middleware"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// sessionHandlers serves the flows shared by users and workers
type sessionHandlers struct {
	svc     domain.AuthService
	logger  *zap.Logger
	key     string
	present func(*domain.Identity) gin.H
}

// LoginRequest represents login request; identifier is a username, email or phone
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
}

// OTPRequest represents an OTP send request
type OTPRequest struct {
	Phone string `json:"phone"`
}

// OTPVerifyRequest represents OTP verification request
type OTPVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents a password change by a logged-in identity
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// bind decodes the JSON body; a malformed body is a validation error
func (h *sessionHandlers) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, h.logger, domain.NewValidationError("invalid request body"))
		return false
	}
	return true
}

func (h *sessionHandlers) authPayload(result *domain.AuthResult) gin.H {
	payload := tokenPayload(result.Tokens)
	payload[h.key] = h.present(result.Identity)
	return payload
}

// Login handles password login
func (h *sessionHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Phone
	}
	if identifier == "" || req.Password == "" {
		response.Error(c, h.logger, domain.NewValidationError("identifier and password are required"))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), identifier, req.Password, c.ClientIP())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Login successful", h.authPayload(result))
}

// RequestOTP sends a login code to a registered phone
func (h *sessionHandlers) RequestOTP(c *gin.Context) {
	var req OTPRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Phone == "" {
		response.Error(c, h.logger, domain.NewValidationError("phone is required"))
		return
	}

	if err := h.svc.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "OTP sent successfully", nil)
}

// VerifyOTP checks a code and logs the identity in
func (h *sessionHandlers) VerifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Phone == "" || req.Code == "" {
		response.Error(c, h.logger, domain.NewValidationError("phone and code are required"))
		return
	}

	result, err := h.svc.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "OTP verified successfully", h.authPayload(result))
}

// Refresh exchanges a refresh token for a new pair
func (h *sessionHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !h.bind(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		response.Error(c, h.logger, domain.NewValidationError("refresh token is required"))
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Token refreshed", tokenPayload(tokens))
}

// Logout revokes every outstanding token of the caller
func (h *sessionHandlers) Logout(c *gin.Context) {
	h.logout(c, "Logged out successfully")
}

// LogoutAll is the same revocation; there is a single token version per identity
func (h *sessionHandlers) LogoutAll(c *gin.Context) {
	h.logout(c, "Logged out from all devices")
}

func (h *sessionHandlers) logout(c *gin.Context, message string) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, h.logger, domain.ErrTokenMissing)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), identity.ID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, message, nil)
}

// ChangePassword verifies the current password and revokes existing tokens
func (h *sessionHandlers) ChangePassword(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, h.logger, domain.ErrTokenMissing)
		return
	}
	var req ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Password changed successfully. Please login again.", nil)
}

// Me returns the caller's profile
func (h *sessionHandlers) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, h.logger, domain.ErrTokenMissing)
		return
	}
	profile, err := h.svc.GetProfile(c.Request.Context(), identity.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "", gin.H{h.key: h.present(profile)})
}
