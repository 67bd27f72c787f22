// internal/handlers/plan/plan_handler.go
package plan

import (
	"net/http"

	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/pkg/response"
	service "fanbase-service/internal/service/plan"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// CreatePlan adds a plan to the artist's catalog
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req plan.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid plan", err)
		return
	}

	p, err := h.planService.CreatePlan(c.Request.Context(), c.Param("artistId"), &req)
	if err != nil {
		response.FromError(c, "failed to create plan", err)
		return
	}

	response.Success(c, http.StatusCreated, "plan created", p)
}

// ListPlans returns the artist's active plans, cheapest first
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListActivePlans(c.Request.Context(), c.Param("artistId"))
	if err != nil {
		response.FromError(c, "failed to list plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", plan.PlanListResponse{
		Plans: plans,
		Total: len(plans),
	})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	p, err := h.planService.GetPlan(c.Request.Context(), c.Param("planId"))
	if err != nil {
		response.FromError(c, "plan not found", err)
		return
	}
	if p.ArtistID != c.Param("artistId") {
		response.NotFound(c, "plan not found")
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", p)
}

// DeactivatePlan stops new subscriptions to a plan
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	p, err := h.planService.DeactivatePlan(c.Request.Context(), c.Param("artistId"), c.Param("planId"))
	if err != nil {
		response.FromError(c, "failed to deactivate plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan deactivated", p)
}
