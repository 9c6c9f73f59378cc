package booking

import (
	"errors"
	"net/http"
	"strconv"

	"bookpass/internal/auth"
	"bookpass/internal/customer"
	"bookpass/internal/invoice"
	"bookpass/internal/ledger"
	"bookpass/internal/tenant"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service      Service
	deliverer    *invoice.Orchestrator
	tenantRepo   tenant.Repository
	customerRepo customer.Repository
}

func NewHandler(service Service, deliverer *invoice.Orchestrator, tenantRepo tenant.Repository, customerRepo customer.Repository) *Handler {
	return &Handler{
		service:      service,
		deliverer:    deliverer,
		tenantRepo:   tenantRepo,
		customerRepo: customerRepo,
	}
}

// BookSlot godoc
// @Summary      Book a slot
// @Description  Reserves visitor units on a slot, spending package balance first. Invoice problems are reported in invoice_error without failing the booking.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBookingRequest  true  "Booking"
// @Success      201      {object}  BookSlotResponse
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /bookings [post]
func (h *Handler) BookSlot(c *gin.Context) {
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

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.BookSlot(c.Request.Context(), tenantID, customerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrMissingTransferReference), errors.Is(err, ErrSlotInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSlotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
		case errors.Is(err, ErrSlotExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": "Slot does not have enough capacity"})
		case errors.Is(err, ErrSubscriptionNotOwned):
			c.JSON(http.StatusForbidden, gin.H{"error": "Subscription does not belong to you"})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "Package balance changed, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Frees the slot capacity. Spent package units are not refunded.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  gin.H
// @Failure      400        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), customerID, bookingID); err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Booking
// @Failure      500  {object}  gin.H
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookings, err := h.service.GetCustomerBookings(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

type sendInvoiceRequest struct {
	Channel string `json:"channel" binding:"required,oneof=email whatsapp"`
}

// SendInvoice godoc
// @Summary      Send booking invoice
// @Description  Delivers the invoice by email or WhatsApp. Refused unless the external accounting system reports the invoice as paid.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                 true  "Booking ID"
// @Param        request    body      sendInvoiceRequest  true  "Channel"
// @Success      200        {object}  gin.H
// @Failure      400        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /bookings/{bookingID}/invoice/send [post]
func (h *Handler) SendInvoice(c *gin.Context) {
	customerID, exists := auth.GetCustomerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req sendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), customerID, bookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	if booking.InvoiceID == nil || *booking.InvoiceID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No invoice exists for this booking"})
		return
	}

	t, err := h.tenantRepo.GetByID(c.Request.Context(), booking.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve tenant"})
		return
	}

	cust, err := h.customerRepo.FindByID(c.Request.Context(), booking.CustomerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve customer"})
		return
	}

	recipient := cust.Email
	if req.Channel == invoice.ChannelWhatsApp {
		if cust.Phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Customer has no phone number"})
			return
		}
		recipient = cust.Phone
	}

	if err := h.deliverer.Deliver(c.Request.Context(), t, *booking.InvoiceID, req.Channel, recipient); err != nil {
		if errors.Is(err, invoice.ErrNotPaid) {
			c.JSON(http.StatusConflict, gin.H{"error": invoice.ErrNotPaid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send invoice"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice sent successfully"})
}

// ListBookingsBySlot godoc
// @Summary      List bookings by slot
// @Description  Returns all bookings for one slot. Admin only.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      int  true  "Slot ID"
// @Success      200     {array}   BookingWithDetails
// @Failure      400     {object}  gin.H
// @Failure      500     {object}  gin.H
// @Router       /admin/slots/{slotID}/bookings [get]
func (h *Handler) ListBookingsBySlot(c *gin.Context) {
	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return
	}

	bookings, err := h.service.GetBookingsBySlot(c.Request.Context(), slotID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListBookingsByService godoc
// @Summary      List bookings by service
// @Description  Returns all bookings for one service. Admin only.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        serviceID  path      int  true  "Service ID"
// @Success      200        {array}   BookingWithDetails
// @Failure      400        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /admin/services/{serviceID}/bookings [get]
func (h *Handler) ListBookingsByService(c *gin.Context) {
	serviceID, err := strconv.Atoi(c.Param("serviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	bookings, err := h.service.GetBookingsByService(c.Request.Context(), serviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}
