package profile

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"localguide/internal/middleware"
	"localguide/internal/modules/auth"
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

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/guides", h.ListGuides)
	public.GET("/guides/:id", h.GetGuide)

	protected.GET("/profile", h.GetProfile)
	protected.PATCH("/profile", h.UpdateProfile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	u, err := h.service.Get(c.Request.Context(), p)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, auth.ToPublic(u))
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Tags         Profile
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to change"
// @Success      200 {object} auth.UserPublic
// @Failure      400 {object} response.ErrorBody
// @Router       /profile [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	u, err := h.service.Update(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, auth.ToPublic(u))
}

func (h *Handler) ListGuides(c *gin.Context) {
	var q GuideQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid query", validator.Details(err))
		return
	}

	list, total, err := h.service.ListGuides(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	views := make([]GuideView, 0, len(list))
	for i := range list {
		views = append(views, ToGuideView(&list[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"guides": views, "pagination": q.Page.Meta(total)})
}

func (h *Handler) GetGuide(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid guide ID")
		return
	}

	u, err := h.service.GetGuide(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToGuideView(u))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid profile data", verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
	default:
		h.log.WithError(err).WithField("route", c.FullPath()).Error("profile request failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
	}
}
