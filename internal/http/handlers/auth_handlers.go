package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// UserAuthHandlers handles the /auth endpoints
type UserAuthHandlers struct {
	sessionHandlers
	users domain.UserAuthService
	// debug echoes reset tokens back to the caller; development only
	debug bool
}

// NewUserAuthHandlers creates new user auth handlers
func NewUserAuthHandlers(users domain.UserAuthService, logger *zap.Logger, debug bool) *UserAuthHandlers {
	logger = logger.Named("user_handlers")
	return &UserAuthHandlers{
		sessionHandlers: sessionHandlers{svc: users, logger: logger, key: "user", present: userPayload},
		users:           users,
		debug:           debug,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ForgotPasswordRequest represents a user password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents a token based password reset
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Register handles user registration; the new user is logged in right away
func (h *UserAuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.users.Register(c.Request.Context(), domain.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Registration successful! You are now logged in.", h.authPayload(result))
}

// ForgotPassword answers the same way whether or not the email is known
func (h *UserAuthHandlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	ticket, err := h.users.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	var data interface{}
	if h.debug && ticket.Token != "" {
		data = gin.H{"debug": gin.H{"resetToken": ticket.Token}}
	}
	response.OK(c, "If an account exists with this email, a password reset link has been sent.", data)
}

// ResetPassword sets a new password from an emailed token
func (h *UserAuthHandlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Password reset successful. Please login with your new password.", nil)
}
