package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// AdminHandlers handles worker administration
type AdminHandlers struct {
	workers     domain.WorkerAuthService
	workerStore domain.WorkerRepository
	logger      *zap.Logger
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(workers domain.WorkerAuthService, workerStore domain.WorkerRepository, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{workers: workers, workerStore: workerStore, logger: logger.Named("admin_handlers")}
}

// StatusRequest is an explicit worker status transition
type StatusRequest struct {
	AccountStatus string `json:"accountStatus"`
	Reason        string `json:"reason"`
}

// VerifiedRequest sets the manual trust flag
type VerifiedRequest struct {
	Verified *bool `json:"verified"`
}

// SetWorkerStatus moves a worker to the requested account status
func (h *AdminHandlers) SetWorkerStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, domain.NewValidationError("invalid request body"))
		return
	}

	workerID := c.Param("id")
	status := domain.AccountStatus(req.AccountStatus)
	if err := h.workers.SetAccountStatus(c.Request.Context(), workerID, status, req.Reason); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Worker status updated", gin.H{"workerId": workerID, "accountStatus": status})
}

// SetWorkerVerified sets or clears the verified flag
func (h *AdminHandlers) SetWorkerVerified(c *gin.Context) {
	var req VerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Verified == nil {
		response.Error(c, h.logger, domain.NewValidationError("verified must be boolean"))
		return
	}

	workerID := c.Param("id")
	if err := h.workers.SetVerified(c.Request.Context(), workerID, *req.Verified); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Worker verification updated", gin.H{"workerId": workerID, "verified": *req.Verified})
}

// GetWorker returns a worker profile to an admin or to the worker itself
func (h *AdminHandlers) GetWorker(c *gin.Context) {
	worker, err := h.workerStore.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "", gin.H{"worker": workerProfilePayload(worker)})
}
