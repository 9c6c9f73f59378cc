package invoice

import (
	"net/http"
	"strconv"

	"bookpass/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	attempts AttemptRepository
}

func NewHandler(attempts AttemptRepository) *Handler {
	return &Handler{attempts: attempts}
}

// ListAttempts godoc
// @Summary      List invoice attempts
// @Description  Reconciliation log of invoice operations for one booking or subscription.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        kind       query     string  true  "booking or subscription"
// @Param        target_id  query     int     true  "Booking or subscription ID"
// @Success      200        {array}   Attempt
// @Failure      400        {object}  gin.H
// @Router       /admin/invoice-attempts [get]
func (h *Handler) ListAttempts(c *gin.Context) {
	tenantID, exists := auth.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	kind := c.Query("kind")
	if kind != "booking" && kind != "subscription" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be booking or subscription"})
		return
	}

	targetID, err := strconv.Atoi(c.Query("target_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target ID"})
		return
	}

	attempts, err := h.attempts.ListByTarget(c.Request.Context(), kind, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoice attempts"})
		return
	}

	// Target ids are per-tenant meaningless on their own; only hand back
	// rows belonging to the caller's tenant.
	scoped := make([]Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.TenantID == tenantID {
			scoped = append(scoped, a)
		}
	}

	c.JSON(http.StatusOK, scoped)
}
