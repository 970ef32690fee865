package domain

import "time"

type Tour struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	GuideID       int64     `json:"guideId" gorm:"index;not null"`
	Title         string    `json:"title" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	Price         float64   `json:"price"`
	DurationHours float64   `json:"durationHours"`
	MaxGroupSize  int       `json:"maxGroupSize"`
	Images        []string  `json:"images,omitempty" gorm:"type:text;serializer:json"`
	Category      string    `json:"category" gorm:"index"`
	City          string    `json:"city" gorm:"index"`
	IsActive      bool      `json:"isActive" gorm:"index"`
	Rating        float64   `json:"rating"`
	ReviewsCount  int       `json:"reviewsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Guide *User `json:"guide,omitempty" gorm:"foreignKey:GuideID"`
}

type TourSummary struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	City   string   `json:"city"`
	Price  float64  `json:"price"`
	Images []string `json:"images,omitempty"`
}

func (t *Tour) Summary() *TourSummary {
	if t == nil {
		return nil
	}
	return &TourSummary{ID: t.ID, Title: t.Title, City: t.City, Price: t.Price, Images: t.Images}
}

type TourFilter struct {
	City     string
	Category string
	Query    string
	GuideID  *int64
	MinPrice *float64
	MaxPrice *float64
	// OnlyActive hides deactivated listings from the public catalog.
	OnlyActive bool
	Limit      int
	Offset     int
}
