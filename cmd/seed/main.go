package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"localguide/internal/config"
	"localguide/internal/database"
	"localguide/internal/domain"
	"localguide/internal/pkg/logger"
	"localguide/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not read .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("DB connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("AutoMigrate failed")
	}

	if err := seed(db, cfg.BcryptCost, log); err != nil {
		log.WithError(err).Fatal("seed failed")
	}

	log.Info("Seed completed!")
	log.Info("Admin: admin@localguide.test / admin123")
	log.Info("Guides: guide1@localguide.test, guide2@localguide.test / guide123")
	log.Info("Tourists: tourist1@localguide.test, tourist2@localguide.test / tourist123")
}

func seed(db *gorm.DB, cost int, log logrus.FieldLogger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// Cleanup old data (in safe order to avoid foreign key errors)
		log.Info("Cleaning old data...")
		for _, table := range []string{"payment_events", "reviews", "bookings", "tours", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clean %s: %w", table, err)
			}
		}

		log.Info("Creating users...")
		if _, err := createUser(tx, cost, "Administrator", "admin@localguide.test", "admin123", domain.RoleAdmin, nil); err != nil {
			return err
		}

		guides := make([]*domain.User, 0, 2)
		for i, langs := range [][]string{{"en", "ru", "kk"}, {"en", "de"}} {
			g, err := createUser(tx, cost, fmt.Sprintf("Guide %d", i+1), fmt.Sprintf("guide%d@localguide.test", i+1), "guide123", domain.RoleGuide, func(u *domain.User) {
				u.Languages = langs
				u.Expertise = []string{"history", "food"}
				u.Bio = "Licensed city guide"
				u.IsVerified = i == 0
			})
			if err != nil {
				return err
			}
			guides = append(guides, g)
		}

		tourists := make([]*domain.User, 0, 2)
		for i := 0; i < 2; i++ {
			t, err := createUser(tx, cost, fmt.Sprintf("Tourist %d", i+1), fmt.Sprintf("tourist%d@localguide.test", i+1), "tourist123", domain.RoleTourist, func(u *domain.User) {
				u.TravelPreferences = []string{"walking", "museums"}
			})
			if err != nil {
				return err
			}
			tourists = append(tourists, t)
		}

		log.Info("Creating tours...")
		specs := []struct {
			guide    int
			title    string
			city     string
			category string
			price    float64
			hours    float64
		}{
			{0, "Old Town Walk", "Almaty", "history", 45, 3},
			{0, "Street Food Evening", "Almaty", "food", 60, 4},
			{1, "Mountain Lakes Day Trip", "Almaty", "nature", 120, 9},
			{1, "Museum Highlights", "Astana", "culture", 35, 2},
		}
		tours := make([]*domain.Tour, 0, len(specs))
		for _, s := range specs {
			t := &domain.Tour{
				GuideID:       guides[s.guide].ID,
				Title:         s.title,
				Description:   s.title + " with a local guide",
				Price:         s.price,
				DurationHours: s.hours,
				MaxGroupSize:  10,
				Category:      s.category,
				City:          s.city,
				IsActive:      true,
			}
			if err := tx.Create(t).Error; err != nil {
				return fmt.Errorf("create tour %q: %w", s.title, err)
			}
			tours = append(tours, t)
		}

		log.Info("Creating bookings...")
		now := time.Now().UTC()
		completedAt := now.Add(-5 * 24 * time.Hour)
		paidAt := now.Add(-10 * 24 * time.Hour)
		done := &domain.Booking{
			TouristID:      tourists[0].ID,
			GuideID:        tours[0].GuideID,
			TourID:         tours[0].ID,
			Date:           completedAt.Truncate(24 * time.Hour),
			NumberOfPeople: 2,
			TotalAmount:    tours[0].Price * 2,
			Status:         domain.BookingCompleted,
			PaymentStatus:  domain.PaymentPaid,
			PaidAt:         &paidAt,
			CompletedAt:    &completedAt,
		}
		upcoming := &domain.Booking{
			TouristID:      tourists[1].ID,
			GuideID:        tours[2].GuideID,
			TourID:         tours[2].ID,
			Date:           now.Add(7 * 24 * time.Hour).Truncate(24 * time.Hour),
			NumberOfPeople: 1,
			TotalAmount:    tours[2].Price,
			Status:         domain.BookingPending,
			PaymentStatus:  domain.PaymentPending,
		}
		for _, b := range []*domain.Booking{done, upcoming} {
			if err := tx.Create(b).Error; err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
		}

		log.Info("Creating reviews...")
		rv := &domain.Review{
			BookingID: done.ID,
			TouristID: done.TouristID,
			GuideID:   done.GuideID,
			TourID:    done.TourID,
			Rating:    5,
			Comment:   "Knew every corner of the old town.",
		}
		if err := repository.NewReviewRepository(tx).CreateWithRatings(context.Background(), rv); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return nil
	})
}

func createUser(tx *gorm.DB, cost int, name, email, password string, role domain.UserRole, with func(*domain.User)) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if with != nil {
		with(u)
	}
	if err := tx.Create(u).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}
