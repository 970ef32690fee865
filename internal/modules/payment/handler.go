package payment

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"localguide/internal/middleware"
	"localguide/internal/pkg/response"
	"localguide/internal/pkg/validator"
)

// maxWebhookBody caps provider deliveries; real events are a few KiB.
const maxWebhookBody = 64 << 10

const signatureHeader = "Stripe-Signature"

type Handler struct {
	service  *Service
	webhooks *WebhookProcessor
	log      logrus.FieldLogger
}

func NewHandler(service *Service, webhooks *WebhookProcessor, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, webhooks: webhooks, log: log}
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/create-intent", h.CreateIntent)
	rg.POST("/payments/create-checkout-session", h.CreateCheckoutSession)
	rg.POST("/payments/confirm", h.ConfirmPayment)
	rg.GET("/payments/bookings/:id/events", h.History)
}

// RegisterPublicRoutes mounts the webhook. It must not sit behind auth or
// any body-parsing middleware since the signature covers the raw bytes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.Webhook)
}

// CreateIntent godoc
// @Summary      Create payment intent
// @Description  Creates (or reuses) a provider payment intent for a booking
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateIntentRequest true "Booking to pay for"
// @Success      200 {object} CreateIntentResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      403 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Router       /payments/create-intent [post]
func (h *Handler) CreateIntent(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	resp, err := h.service.CreatePaymentIntent(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"clientSecret":    resp.ClientSecret,
		"paymentIntentId": resp.PaymentIntentID,
	})
}

// CreateCheckoutSession godoc
// @Summary      Create hosted checkout session
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CheckoutRequest true "Checkout payload"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} response.ErrorBody
// @Router       /payments/create-checkout-session [post]
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	url, err := h.service.CreateCheckoutSession(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"url": url})
}

// ConfirmPayment godoc
// @Summary      Confirm payment
// @Description  Checks the intent with the provider and updates the booking
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body ConfirmRequest true "Intent to confirm"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Router       /payments/confirm [post]
func (h *Handler) ConfirmPayment(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	b, err := h.service.ConfirmPayment(c.Request.Context(), p, req.PaymentIntentID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"booking": toPaymentView(b)})
}

func (h *Handler) History(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	list, err := h.webhooks.History(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"events": list})
}

// Webhook godoc
// @Summary      Payment provider webhook
// @Description  Verifies the signature and reconciles booking payment state
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Webhook body is unreadable or too large")
		return
	}

	res, err := h.webhooks.Handle(c.Request.Context(), body, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			h.log.WithError(err).Warn("rejected webhook with invalid signature")
			response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		case errors.Is(err, ErrMalformedEvent):
			h.log.WithError(err).Warn("rejected malformed webhook")
			response.Error(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Webhook event could not be decoded")
		default:
			h.log.WithError(err).Error("webhook processing failed")
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Webhook processing failed")
		}
		return
	}

	h.log.WithFields(logrus.Fields{
		"event_id":   res.EventID,
		"event_type": res.Type,
		"outcome":    res.Outcome,
		"booking_id": res.BookingID,
	}).Info("webhook processed")

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": res.Outcome})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var (
		verr *ValidationError
		perr *ProviderError
		nerr *NotSucceededError
	)
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid payment data", verr.Fields)
	case errors.Is(err, ErrMissingFields):
		response.Error(c, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.As(err, &nerr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "PAYMENT_NOT_SUCCEEDED", "Payment has not succeeded",
			map[string]string{"status": nerr.Status})
	case errors.Is(err, ErrNotPayable):
		response.Error(c, http.StatusBadRequest, "BOOKING_NOT_PAYABLE", err.Error())
	case errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.As(err, &perr):
		h.log.WithError(err).WithField("route", c.FullPath()).Warn("payment provider call failed")
		if perr.Rejected() {
			response.Error(c, http.StatusBadRequest, "PROVIDER_ERROR", perr.Message)
			return
		}
		response.Error(c, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "Payment provider is unavailable")
	default:
		h.log.WithError(err).WithField("route", c.FullPath()).Error("payment request failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to process payment request")
	}
}
