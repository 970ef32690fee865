package domain

import "time"

type UserRole string

const (
	RoleTourist UserRole = "tourist"
	RoleGuide   UserRole = "guide"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleTourist || r == RoleGuide || r == RoleAdmin
}

type User struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	Email             string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash      string    `json:"-" gorm:"not null"`
	Role              UserRole  `json:"role" gorm:"type:varchar(20);index;not null"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone,omitempty"`
	AvatarURL         string    `json:"avatarUrl,omitempty"`
	Bio               string    `json:"bio,omitempty" gorm:"type:text"`
	Languages         []string  `json:"languages,omitempty" gorm:"type:text;serializer:json"`
	Expertise         []string  `json:"expertise,omitempty" gorm:"type:text;serializer:json"`
	TravelPreferences []string  `json:"travelPreferences,omitempty" gorm:"type:text;serializer:json"`
	IsActive          bool      `json:"isActive"`
	IsVerified        bool      `json:"isVerified"`
	Rating            float64   `json:"rating"`
	ReviewsCount      int       `json:"reviewsCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UserSummary is the reference view embedded in bookings and tours.
type UserSummary struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
	if u.Role == RoleGuide {
		r := u.Rating
		s.Rating = &r
	}
	return s
}

type UserFilter struct {
	Role   UserRole
	Query  string
	Active *bool
	Limit  int
	Offset int
}
