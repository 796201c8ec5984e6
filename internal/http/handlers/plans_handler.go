// README: Saved plan, saved destination and share link handlers (owner-scoped).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voyage/internal/http/middleware"
	"voyage/internal/modules/plans"
)

// SharedPathPrefix is the public route a share id is appended to.
const SharedPathPrefix = "/api/shared/"

type PlansHandler struct {
	plans  *plans.Service
	logger *zap.Logger
}

// NewPlansHandler accepts a nil service; every route then answers 503.
func NewPlansHandler(svc *plans.Service, logger *zap.Logger) *PlansHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlansHandler{plans: svc, logger: logger.Named("plans_handler")}
}

func (h *PlansHandler) available(c *gin.Context) bool {
	if h.plans == nil {
		writeError(c, http.StatusServiceUnavailable, "saved plans require a database")
		return false
	}
	return true
}

func (h *PlansHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, plans.ErrBadRequest):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
	case errors.Is(err, plans.ErrNotFound):
		writeError(c, http.StatusNotFound, "not found")
	default:
		h.logger.Error("plans request failed", zap.String("route", c.FullPath()), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *PlansHandler) ListPlans(c *gin.Context) {
	if !h.available(c) {
		return
	}
	list, err := h.plans.ListPlans(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []plans.PlanSummary{}
	}
	writeJSON(c, http.StatusOK, list)
}

func (h *PlansHandler) CreatePlan(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var in plans.CreatePlanInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.plans.CreatePlan(c.Request.Context(), middleware.CallerUID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, p)
}

func (h *PlansHandler) GetPlan(c *gin.Context) {
	if !h.available(c) {
		return
	}
	p, err := h.plans.GetPlan(c.Request.Context(), middleware.CallerUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PlansHandler) UpdatePlan(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var in plans.UpdatePlanInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.plans.UpdatePlan(c.Request.Context(), middleware.CallerUID(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PlansHandler) DeletePlan(c *gin.Context) {
	if !h.available(c) {
		return
	}
	if err := h.plans.DeletePlan(c.Request.Context(), middleware.CallerUID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SharePlan handles POST /api/user/plans/:id/share.
func (h *PlansHandler) SharePlan(c *gin.Context) {
	if !h.available(c) {
		return
	}
	share, err := h.plans.SharePlan(c.Request.Context(), middleware.CallerUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"shareId":   share.ID,
		"planId":    share.PlanID,
		"expiresAt": share.ExpiresAt,
		"shareUrl":  SharedPathPrefix + share.ID,
	})
}

// GetShared handles the public GET /api/shared/:shareId.
func (h *PlansHandler) GetShared(c *gin.Context) {
	if !h.available(c) {
		return
	}
	view, err := h.plans.GetShared(c.Request.Context(), c.Param("shareId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, view)
}

func (h *PlansHandler) ListDestinations(c *gin.Context) {
	if !h.available(c) {
		return
	}
	list, err := h.plans.ListDestinations(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"destinations": list})
}

func (h *PlansHandler) SaveDestination(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var in plans.CreateDestinationInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.plans.SaveDestination(c.Request.Context(), middleware.CallerUID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}

func (h *PlansHandler) DeleteDestination(c *gin.Context) {
	if !h.available(c) {
		return
	}
	if err := h.plans.DeleteDestination(c.Request.Context(), middleware.CallerUID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
