package auth

import "localguide/internal/domain"

// RegisterRequest accepts tourist and guide sign-ups. Admin accounts are
// created by seeding or promotion, never by self-registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=tourist guide"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserPublic is the account view returned to its owner.
type UserPublic struct {
	ID                int64           `json:"id"`
	Email             string          `json:"email"`
	Name              string          `json:"name"`
	Role              domain.UserRole `json:"role"`
	Phone             string          `json:"phone,omitempty"`
	AvatarURL         string          `json:"avatarUrl,omitempty"`
	Bio               string          `json:"bio,omitempty"`
	Languages         []string        `json:"languages,omitempty"`
	Expertise         []string        `json:"expertise,omitempty"`
	TravelPreferences []string        `json:"travelPreferences,omitempty"`
	IsVerified        bool            `json:"isVerified"`
	Rating            float64         `json:"rating"`
	ReviewsCount      int             `json:"reviewsCount"`
}

func ToPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		Phone:             u.Phone,
		AvatarURL:         u.AvatarURL,
		Bio:               u.Bio,
		Languages:         u.Languages,
		Expertise:         u.Expertise,
		TravelPreferences: u.TravelPreferences,
		IsVerified:        u.IsVerified,
		Rating:            u.Rating,
		ReviewsCount:      u.ReviewsCount,
	}
}

type AuthResult struct {
	User  *domain.User
	Token string
}
