package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/middleware"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// WorkerAuthHandlers handles the /worker-auth endpoints
type WorkerAuthHandlers struct {
	sessionHandlers
	workers domain.WorkerAuthService
}

// NewWorkerAuthHandlers creates new worker auth handlers
func NewWorkerAuthHandlers(workers domain.WorkerAuthService, logger *zap.Logger) *WorkerAuthHandlers {
	logger = logger.Named("worker_handlers")
	return &WorkerAuthHandlers{
		sessionHandlers: sessionHandlers{svc: workers, logger: logger, key: "worker", present: workerProfilePayload},
		workers:         workers,
	}
}

// WorkerRegisterRequest represents worker self-registration
type WorkerRegisterRequest struct {
	Name            string   `json:"name"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Password        string   `json:"password"`
	PrimaryCategory string   `json:"primaryCategory"`
	Skills          []string `json:"skills"`
	YearsExperience int      `json:"yearsExperience"`
	PricePerHour    float64  `json:"pricePerHour"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
}

// WorkerForgotPasswordRequest starts a phone OTP reset
type WorkerForgotPasswordRequest struct {
	Phone string `json:"phone"`
}

// WorkerResetPasswordRequest completes a phone OTP reset
type WorkerResetPasswordRequest struct {
	Phone       string `json:"phone"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// WorkerProfileRequest carries the editable profile fields; absent fields are unchanged
type WorkerProfileRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	Bio             *string  `json:"bio"`
	Skills          []string `json:"skills"`
	YearsExperience *int     `json:"yearsExperience"`
	PricePerHour    *float64 `json:"pricePerHour"`
	MinimumCharge   *float64 `json:"minimumCharge"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ServiceRadiusKM *int     `json:"serviceRadiusKm"`
	Language        *string  `json:"language"`
}

// AvailabilityRequest toggles whether a worker takes jobs
type AvailabilityRequest struct {
	CurrentlyAvailable *bool `json:"currentlyAvailable"`
}

// Register creates a pending worker and sends a signup OTP.
// A known phone gets a login OTP instead.
func (h *WorkerAuthHandlers) Register(c *gin.Context) {
	var req WorkerRegisterRequest
	if !h.bind(c, &req) {
		return
	}

	outcome, err := h.workers.Register(c.Request.Context(), domain.WorkerRegisterRequest{
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		PrimaryCategory: req.PrimaryCategory,
		Skills:          req.Skills,
		YearsExperience: req.YearsExperience,
		PricePerHour:    req.PricePerHour,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	if outcome.ExistingPhone {
		response.OK(c, "Phone already registered. OTP sent for login.", gin.H{
			"existingPhone": true,
		})
		return
	}
	response.OK(c, "Worker registered. OTP sent to phone for verification.", gin.H{
		"workerId": outcome.Identity.ID,
	})
}

// ForgotPassword answers the same way whether or not the phone is known
func (h *WorkerAuthHandlers) ForgotPassword(c *gin.Context) {
	var req WorkerForgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.workers.ForgotPassword(c.Request.Context(), req.Phone); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "If an account exists with this phone, an OTP has been sent.", nil)
}

// ResetPassword sets a new password after checking the reset OTP
func (h *WorkerAuthHandlers) ResetPassword(c *gin.Context) {
	var req WorkerResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.workers.ResetPassword(c.Request.Context(), req.Phone, req.Code, req.NewPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Password reset successful. Please login with your new password.", nil)
}

// UpdateProfile edits the caller's profile
func (h *WorkerAuthHandlers) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, h.logger, domain.ErrTokenMissing)
		return
	}
	var req WorkerProfileRequest
	if !h.bind(c, &req) {
		return
	}

	updated, err := h.workers.UpdateProfile(c.Request.Context(), identity.ID, &domain.WorkerProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		Bio:             req.Bio,
		Skills:          req.Skills,
		YearsExperience: req.YearsExperience,
		PricePerHour:    req.PricePerHour,
		MinimumCharge:   req.MinimumCharge,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ServiceRadiusKM: req.ServiceRadiusKM,
		Language:        req.Language,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Profile updated", gin.H{"worker": workerProfilePayload(updated)})
}

// SetAvailability toggles the caller's availability
func (h *WorkerAuthHandlers) SetAvailability(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, h.logger, domain.ErrTokenMissing)
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentlyAvailable == nil {
		var typeErr *json.UnmarshalTypeError
		if err != nil && !errors.As(err, &typeErr) {
			response.Error(c, h.logger, domain.NewValidationError("invalid request body"))
			return
		}
		response.Error(c, h.logger, domain.NewValidationError("currentlyAvailable must be boolean"))
		return
	}

	if err := h.workers.SetAvailability(c.Request.Context(), identity.ID, *req.CurrentlyAvailable); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Availability updated", gin.H{"currentlyAvailable": *req.CurrentlyAvailable})
}
