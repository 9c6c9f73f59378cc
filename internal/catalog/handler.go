package catalog

import (
	"net/http"
	"strconv"
	"time"

	"bookpass/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateService godoc
// @Summary      Create service
// @Description  Creates a bookable service for the tenant. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateServiceRequest  true  "Service"
// @Success      201      {object}  Service
// @Failure      400      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	tenantID, exists := auth.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not resolved"})
		return
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc, err := h.repo.CreateService(c.Request.Context(), tenantID, req.Name, req.UnitPriceCents)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service"})
		return
	}

	c.JSON(http.StatusCreated, svc)
}

// ListServices godoc
// @Summary      List services
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Service
// @Failure      500  {object}  gin.H
// @Router       /services [get]
func (h *Handler) ListServices(c *gin.Context) {
	tenantID, exists := auth.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not resolved"})
		return
	}

	services, err := h.repo.ListServices(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}

	c.JSON(http.StatusOK, services)
}

// CreateSlot godoc
// @Summary      Create slot
// @Description  Creates a time slot for a service. Admin only.
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        serviceID  path      int                true  "Service ID"
// @Param        request    body      CreateSlotRequest  true  "Slot"
// @Success      201        {object}  Slot
// @Failure      400        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /admin/services/{serviceID}/slots [post]
func (h *Handler) CreateSlot(c *gin.Context) {
	serviceID, err := strconv.Atoi(c.Param("serviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid starts_at format, use RFC3339"})
		return
	}

	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ends_at format, use RFC3339"})
		return
	}

	if !endsAt.After(startsAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at must be after starts_at"})
		return
	}

	if _, err := h.repo.GetServiceByID(c.Request.Context(), serviceID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		return
	}

	slot, err := h.repo.CreateSlot(c.Request.Context(), serviceID, startsAt, endsAt, req.Capacity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create slot"})
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// ListSlots godoc
// @Summary      List slots
// @Description  Returns slots of a service with their current availability.
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        serviceID  path      int     true   "Service ID"
// @Param        future     query     string  false  "Only future slots (true/false)"
// @Success      200        {array}   Slot
// @Failure      400        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /services/{serviceID}/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	serviceID, err := strconv.Atoi(c.Param("serviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	onlyFuture := c.DefaultQuery("future", "true") == "true"

	slots, err := h.repo.ListSlots(c.Request.Context(), serviceID, onlyFuture)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}
