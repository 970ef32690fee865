package domain

import "time"

type Review struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	BookingID int64     `json:"bookingId" gorm:"uniqueIndex;not null"`
	TouristID int64     `json:"touristId" gorm:"index;not null"`
	GuideID   int64     `json:"guideId" gorm:"index;not null"`
	TourID    int64     `json:"tourId" gorm:"index;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`

	Tourist *User `json:"tourist,omitempty" gorm:"foreignKey:TouristID"`
}

// RatingAggregate is the recomputed mean and count for one review target.
type RatingAggregate struct {
	Rating float64
	Count  int
}
