package review

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"localguide/internal/domain"
	"localguide/internal/middleware"
	"localguide/internal/pkg/pagination"
	"localguide/internal/pkg/response"
	"localguide/internal/pkg/validator"
)

type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts review endpoints. Any group may be nil.
func (h *Handler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	if public != nil {
		public.GET("/tours/:id/reviews", h.ListByTour)
		public.GET("/guides/:id/reviews", h.ListByGuide)
	}
	if protected != nil {
		protected.POST("/reviews", h.Create)
	}
	if admin != nil {
		admin.POST("/ratings/recompute", h.Recompute)
	}
}

// Create godoc
// @Summary      Write a review
// @Description  The booking's tourist may review it once the booking is completed. One review per booking.
// @Tags         Reviews
// @Security     BearerAuth
// @Param        request body CreateReviewRequest true "Review"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} response.ErrorBody
// @Failure      403 {object} response.ErrorBody
// @Failure      409 {object} response.ErrorBody
// @Router       /reviews [post]
func (h *Handler) Create(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	rv, err := h.svc.Create(c.Request.Context(), p, req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid review data", verr.Fields)
		case errors.Is(err, ErrBookingNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking not found")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "Only the booking's tourist can review it")
		case errors.Is(err, ErrReviewNotAllowed):
			response.Error(c, http.StatusForbidden, "REVIEW_NOT_ALLOWED", "You can review only after the tour is completed")
		case errors.Is(err, ErrConflict):
			response.Error(c, http.StatusConflict, response.CodeConflict, "This booking has already been reviewed")
		default:
			h.log.WithError(err).Error("create review failed")
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
		}
		return
	}

	response.Success(c, http.StatusCreated, rv)
}

// ListByTour godoc
// @Summary      Reviews of a tour
// @Tags         Reviews
// @Param        id    path  int true  "Tour ID"
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} map[string]interface{}
// @Router       /tours/{id}/reviews [get]
func (h *Handler) ListByTour(c *gin.Context) {
	id, page, ok := targetAndPage(c)
	if !ok {
		return
	}
	items, err := h.svc.ListByTour(c.Request.Context(), id, page.Normalize().Limit, page.Offset())
	h.writeList(c, items, err)
}

// ListByGuide godoc
// @Summary      Reviews of a guide
// @Tags         Reviews
// @Param        id    path  int true  "Guide ID"
// @Success      200 {object} map[string]interface{}
// @Router       /guides/{id}/reviews [get]
func (h *Handler) ListByGuide(c *gin.Context) {
	id, page, ok := targetAndPage(c)
	if !ok {
		return
	}
	items, err := h.svc.ListByGuide(c.Request.Context(), id, page.Normalize().Limit, page.Offset())
	h.writeList(c, items, err)
}

// Recompute godoc
// @Summary      Recompute all ratings
// @Tags         Admin
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{}
// @Router       /admin/ratings/recompute [post]
func (h *Handler) Recompute(c *gin.Context) {
	res, err := h.svc.Recompute(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("recompute ratings failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to recompute ratings")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) writeList(c *gin.Context, items []domain.Review, err error) {
	if err != nil {
		h.log.WithError(err).Error("list reviews failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
		return
	}
	response.Success(c, http.StatusOK, ToViews(items))
}

func targetAndPage(c *gin.Context) (int64, pagination.Page, bool) {
	var page pagination.Page
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, page, false
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid query", validator.Details(err))
		return 0, page, false
	}
	return id, page, true
}
