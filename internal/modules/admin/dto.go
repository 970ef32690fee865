package admin

import (
	"localguide/internal/domain"
	"localguide/internal/pkg/pagination"
)

type UserListQuery struct {
	pagination.Page
	Role   string `form:"role"`
	Query  string `form:"q"`
	Active *bool  `form:"active"`
}

type ChangeRoleRequest struct {
	Role domain.UserRole `json:"role" binding:"required"`
}

type SetStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type SetVerifiedRequest struct {
	IsVerified *bool `json:"isVerified" binding:"required"`
}

type BookingListQuery struct {
	Status string `form:"status"`
}

// UserRow is the admin listing view of an account.
type UserRow struct {
	ID           int64           `json:"id"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Role         domain.UserRole `json:"role"`
	IsActive     bool            `json:"isActive"`
	IsVerified   bool            `json:"isVerified"`
	Rating       float64         `json:"rating"`
	ReviewsCount int             `json:"reviewsCount"`
	CreatedAt    string          `json:"createdAt"`
}

func toUserRow(u *domain.User) UserRow {
	return UserRow{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		IsActive:     u.IsActive,
		IsVerified:   u.IsVerified,
		Rating:       u.Rating,
		ReviewsCount: u.ReviewsCount,
		CreatedAt:    u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

type UserListResponse struct {
	Users      []UserRow       `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}
