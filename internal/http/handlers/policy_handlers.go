package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// PolicyHandlers manages the casbin rules guarding admin routes
type PolicyHandlers struct {
	policies domain.PolicyService
	logger   *zap.Logger
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policies domain.PolicyService, logger *zap.Logger) *PolicyHandlers {
	return &PolicyHandlers{policies: policies, logger: logger.Named("policy_handlers")}
}

// PolicyRequest names one rule; role is a token role such as "admin"
type PolicyRequest struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	response.OK(c, "", gin.H{"policies": h.policies.GetPolicies()})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		response.Error(c, h.logger, domain.NewValidationError("invalid request body"))
		return
	}
	if err := h.policies.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, "Policy added", r)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		response.Error(c, h.logger, domain.NewValidationError("invalid request body"))
		return
	}
	if err := h.policies.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Policy removed", r)
}
