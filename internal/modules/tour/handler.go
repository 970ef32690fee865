package tour

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
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the catalog. public should carry OptionalAuth so
// owners can see their inactive tours; guides must carry JWTAuth.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/tours", h.List)
	public.GET("/tours/:id", h.Get)

	protected.GET("/tours/mine", h.Mine)
	protected.POST("/tours", h.Create)
	protected.PATCH("/tours/:id", h.Update)
	protected.PATCH("/tours/:id/active", h.SetActive)
}

// List godoc
// @Summary      Search tours
// @Tags         Tours
// @Param        city     query string false "City"
// @Param        category query string false "Category"
// @Param        q        query string false "Full text"
// @Param        minPrice query number false "Min price"
// @Param        maxPrice query number false "Max price"
// @Param        guideId  query int    false "Guide"
// @Param        page     query int    false "Page"
// @Param        limit    query int    false "Page size"
// @Success      200 {object} map[string]interface{}
// @Router       /tours [get]
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid query", validator.Details(err))
		return
	}

	list, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tours":      ToViews(list),
		"pagination": q.Page.Meta(total),
	})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := tourID(c)
	if !ok {
		return
	}

	var viewer *domain.Principal
	if p, ok := middleware.PrincipalFrom(c); ok {
		viewer = &p
	}

	t, err := h.service.Get(c.Request.Context(), viewer, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToView(t))
}

func (h *Handler) Mine(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}
	var page pagination.Page
	_ = c.ShouldBindQuery(&page)

	list, total, err := h.service.Mine(c.Request.Context(), p, page)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"tours":      ToViews(list),
		"pagination": page.Meta(total),
	})
}

// Create godoc
// @Summary      Create a tour
// @Tags         Tours
// @Security     BearerAuth
// @Param        request body CreateTourRequest true "Tour"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} response.ErrorBody
// @Failure      403 {object} response.ErrorBody
// @Router       /tours [post]
func (h *Handler) Create(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	t, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, ToView(t))
}

func (h *Handler) Update(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}
	id, ok := tourID(c)
	if !ok {
		return
	}

	var req UpdateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	t, err := h.service.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToView(t))
}

func (h *Handler) SetActive(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}
	id, ok := tourID(c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	t, err := h.service.SetActive(c.Request.Context(), p, id, *req.IsActive)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToView(t))
}

func tourID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid tour ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid tour data", verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Tour not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "You cannot manage this tour")
	default:
		h.log.WithError(err).WithField("route", c.FullPath()).Error("tour request failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to process tour request")
	}
}
