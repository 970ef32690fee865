package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"localguide/internal/domain"
	"localguide/internal/middleware"
	"localguide/internal/modules/booking"
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

// RegisterRoutes expects a group already guarded by JWTAuth and AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	// statistics
	admin.GET("/stats", h.GetStats)

	// users moderation
	admin.GET("/users", h.GetUsers)
	admin.PATCH("/users/:id/role", h.ChangeRole)
	admin.PATCH("/users/:id/status", h.SetStatus)
	admin.PATCH("/users/:id/verify", h.SetVerified)

	// bookings oversight
	admin.GET("/bookings", h.GetBookings)
}

// GetUsers godoc
// @Summary      List users
// @Tags         Admin
// @Security     BearerAuth
// @Param        role   query string false "tourist, guide or admin"
// @Param        q      query string false "Name or email contains"
// @Param        active query bool   false "Active flag"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} UserListResponse
// @Router       /admin/users [get]
func (h *Handler) GetUsers(c *gin.Context) {
	var q UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid query", validator.Details(err))
		return
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	rows := make([]UserRow, 0, len(users))
	for i := range users {
		rows = append(rows, toUserRow(&users[i]))
	}
	response.Success(c, http.StatusOK, UserListResponse{Users: rows, Pagination: q.Page.Meta(total)})
}

// ChangeRole godoc
// @Summary      Change a user's role
// @Description  An admin cannot change their own role.
// @Tags         Admin
// @Security     BearerAuth
// @Param        id      path int               true "User ID"
// @Param        request body ChangeRoleRequest true "New role"
// @Success      200 {object} UserRow
// @Failure      400 {object} response.ErrorBody
// @Router       /admin/users/{id}/role [patch]
func (h *Handler) ChangeRole(c *gin.Context) {
	actor, id, ok := h.actorAndTarget(c)
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	u, err := h.service.ChangeRole(c.Request.Context(), actor, id, req.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserRow(u))
}

// SetStatus godoc
// @Summary      Activate or deactivate a user
// @Description  An admin cannot deactivate their own account.
// @Tags         Admin
// @Security     BearerAuth
// @Param        id      path int              true "User ID"
// @Param        request body SetStatusRequest true "Status"
// @Success      200 {object} UserRow
// @Failure      400 {object} response.ErrorBody
// @Router       /admin/users/{id}/status [patch]
func (h *Handler) SetStatus(c *gin.Context) {
	actor, id, ok := h.actorAndTarget(c)
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	u, err := h.service.SetStatus(c.Request.Context(), actor, id, *req.IsActive)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserRow(u))
}

func (h *Handler) SetVerified(c *gin.Context) {
	actor, id, ok := h.actorAndTarget(c)
	if !ok {
		return
	}

	var req SetVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body", validator.Details(err))
		return
	}

	u, err := h.service.SetVerified(c.Request.Context(), actor, id, *req.IsVerified)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserRow(u))
}

func (h *Handler) GetBookings(c *gin.Context) {
	var q BookingListQuery
	_ = c.ShouldBindQuery(&q)

	list, err := h.service.ListBookings(c.Request.Context(), q.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"bookings": booking.ToViews(list)})
}

// GetStats godoc
// @Summary      Platform statistics
// @Tags         Admin
// @Security     BearerAuth
// @Success      200 {object} repository.Stats
// @Router       /admin/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	st, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) actorAndTarget(c *gin.Context) (domain.Principal, int64, bool) {
	actor, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "Authentication required")
		return actor, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return actor, 0, false
	}
	return actor, id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSelfRoleChange):
		response.Error(c, http.StatusBadRequest, "SELF_ROLE_CHANGE", "You cannot change your own role")
	case errors.Is(err, ErrSelfDeactivation):
		response.Error(c, http.StatusBadRequest, "SELF_DEACTIVATION", "You cannot deactivate your own account")
	case errors.Is(err, ErrInvalidRole):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Role must be tourist, guide or admin")
	case errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Unknown booking status")
	case errors.Is(err, ErrNotAGuide):
		response.Error(c, http.StatusBadRequest, "NOT_A_GUIDE", "Only guides can be verified")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "User not found")
	default:
		h.log.WithError(err).WithField("route", c.FullPath()).Error("admin request failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
	}
}
