package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"localguide/internal/middleware"
	"localguide/internal/pkg/response"
	"localguide/internal/pkg/validator"
)

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the booking endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.PATCH("/bookings/:id", h.UpdateStatus)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"booking": ToView(b),
		"message": "Booking created successfully",
	})
}

func (h *Handler) ListBookings(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid query", validator.Details(err))
		return
	}

	list, err := h.service.ListBookings(c.Request.Context(), p, q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"bookings": ToViews(list)})
}

func (h *Handler) GetBooking(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"booking": ToView(b)})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), p, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"booking": ToView(b)})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid booking data", verr.Fields)
	case errors.Is(err, ErrTourUnavailable):
		response.Error(c, http.StatusBadRequest, "TOUR_UNAVAILABLE", "Tour does not exist or is not active")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	default:
		h.log.WithError(err).WithField("route", c.FullPath()).Error("booking request failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to process booking request")
	}
}
