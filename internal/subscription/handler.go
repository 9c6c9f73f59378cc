package subscription

import (
	"errors"
	"net/http"
	"strconv"

	"bookpass/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPackages godoc
// @Summary      List packages
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Package
// @Failure      500  {object}  gin.H
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	tenantID, exists := auth.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not resolved"})
		return
	}

	packages, err := h.service.ListPackages(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch packages"})
		return
	}

	c.JSON(http.StatusOK, packages)
}

// Purchase godoc
// @Summary      Purchase package
// @Description  Buys a prepaid package. Transfer payments must carry a transaction reference.
// @Tags         subscriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      PurchaseRequest  true  "Purchase"
// @Success      201      {object}  PurchaseResponse
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /subscriptions [post]
func (h *Handler) Purchase(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	tenantID, exists := auth.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not resolved"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Purchase(c.Request.Context(), tenantID, customerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingTransferReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Transaction reference is required for transfer payments"})
		case errors.Is(err, ErrPackageNotFound), errors.Is(err, ErrPackageTenantMismatch):
			c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purchase package"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListMySubscriptions godoc
// @Summary      List my subscriptions
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   PackageSubscription
// @Failure      500  {object}  gin.H
// @Router       /subscriptions [get]
func (h *Handler) ListMySubscriptions(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	subs, err := h.service.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

// GetBalances godoc
// @Summary      Remaining package units
// @Description  Returns the ledger entries of a subscription, one per covered service.
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        subscriptionID  path      int  true  "Subscription ID"
// @Success      200             {array}   ledger.Entry
// @Failure      400             {object}  gin.H
// @Failure      403             {object}  gin.H
// @Failure      404             {object}  gin.H
// @Router       /subscriptions/{subscriptionID}/balances [get]
func (h *Handler) GetBalances(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	subscriptionID, err := strconv.Atoi(c.Param("subscriptionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	sub, err := h.service.GetByID(c.Request.Context(), subscriptionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if sub.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own subscriptions"})
		return
	}

	entries, err := h.service.GetBalances(c.Request.Context(), subscriptionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch balances"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// Cancel godoc
// @Summary      Cancel subscription
// @Description  Terminal: remaining units are forfeited, the ledger is not refunded.
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        subscriptionID  path      int  true  "Subscription ID"
// @Success      200             {object}  gin.H
// @Failure      400             {object}  gin.H
// @Failure      404             {object}  gin.H
// @Router       /subscriptions/{subscriptionID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	subscriptionID, err := strconv.Atoi(c.Param("subscriptionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), customerID, subscriptionID); err != nil {
		if errors.Is(err, ErrSubscriptionNotFoundOrAlreadyCancelled) || errors.Is(err, ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found or already cancelled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully"})
}

// MarkPaid godoc
// @Summary      Mark subscription paid
// @Description  Records that the onsite or transfer payment was collected.
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Param        subscriptionID  path      int  true  "Subscription ID"
// @Success      200             {object}  gin.H
// @Failure      400             {object}  gin.H
// @Failure      404             {object}  gin.H
// @Router       /admin/subscriptions/{subscriptionID}/mark-paid [post]
func (h *Handler) MarkPaid(c *gin.Context) {
	tenantID, exists := auth.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	subscriptionID, err := strconv.Atoi(c.Param("subscriptionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	if err := h.service.MarkPaid(c.Request.Context(), tenantID, subscriptionID); err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark subscription as paid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription marked as paid"})
}
