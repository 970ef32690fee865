// Package server assembles the HTTP surface: middleware, route groups and
// every module handler.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/config"
	"localguide/internal/database"
	"localguide/internal/events"
	"localguide/internal/middleware"
	"localguide/internal/modules/admin"
	"localguide/internal/modules/auth"
	"localguide/internal/modules/booking"
	"localguide/internal/modules/live"
	"localguide/internal/modules/payment"
	"localguide/internal/modules/profile"
	"localguide/internal/modules/review"
	"localguide/internal/modules/tour"
	"localguide/internal/pkg/jwt"
	"localguide/internal/repository"
)

type Deps struct {
	Config  *config.Config
	Log     logrus.FieldLogger
	DB      *gorm.DB
	Tokens  *jwt.Service
	Gateway payment.Gateway

	// Redis backs the auth rate limiter. Nil disables limiting.
	Redis *redis.Client
	// Hub receives booking updates for websocket clients. Created when nil.
	Hub *live.Hub
	// Sinks are extra booking notifiers (broker, Telegram). Nil entries are skipped.
	Sinks []events.Notifier
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(d Deps) (*gin.Engine, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	if d.Hub == nil {
		d.Hub = live.NewHub()
	}

	log := d.Log
	cfg := d.Config

	userRepo := repository.NewUserRepository(d.DB)
	tourRepo := repository.NewTourRepository(d.DB)
	bookingRepo := repository.NewBookingRepository(d.DB)
	reviewRepo := repository.NewReviewRepository(d.DB)
	paymentEventRepo := repository.NewPaymentEventRepository(d.DB)
	statsRepo := repository.NewStatsRepository(sqlDB, d.DB.Dialector.Name())

	notifier := events.NewMulti(log, append([]events.Notifier{d.Hub}, d.Sinks...)...)
	authenticator := middleware.NewAuthenticator(d.Tokens, userRepo)

	authHandler := auth.NewHandler(auth.NewService(userRepo, d.Tokens, cfg.BcryptCost, log), log)
	tourHandler := tour.NewHandler(tour.NewService(tourRepo, log), log)
	bookingHandler := booking.NewHandler(booking.NewService(bookingRepo, tourRepo, notifier, log), log)
	paymentHandler := payment.NewHandler(
		payment.NewService(bookingRepo, d.Gateway, notifier, payment.Config{
			Currency:   cfg.PaymentCurrency,
			AppBaseURL: cfg.AppBaseURL,
		}, log),
		payment.NewWebhookProcessor(d.Gateway, bookingRepo, paymentEventRepo, notifier, log),
		log,
	)
	reviewHandler := review.NewHandler(review.NewService(reviewRepo, bookingRepo, log), log)
	profileHandler := profile.NewHandler(profile.NewService(userRepo, log), log)
	adminHandler := admin.NewHandler(admin.NewService(userRepo, bookingRepo, statsRepo, log), log)
	liveHandler := live.NewHandler(d.Hub, authenticator, cfg.CORSAllowedOrigins, log)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context(), sqlDB); err != nil {
			log.WithError(err).Warn("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", liveHandler.ServeWS)

	var limiter gin.HandlerFunc
	rl := middleware.RateLimitConfig{
		Capacity:       cfg.RateLimitCapacity,
		RefillTokens:   1,
		RefillInterval: cfg.RateLimitRefillInterval,
		Prefix:         "rl:auth",
	}
	if d.Redis != nil {
		limiter = middleware.RateLimit(d.Redis, rl, log)
	}

	api := r.Group("/api")

	// webhook and auth entry points: no bearer token
	authHandler.RegisterPublicRoutes(api, limiter)
	paymentHandler.RegisterPublicRoutes(api)

	public := api.Group("")
	public.Use(middleware.OptionalAuth(authenticator))

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(authenticator))

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.JWTAuth(authenticator), middleware.AdminOnly())

	authHandler.RegisterProtectedRoutes(protected)
	tourHandler.RegisterRoutes(public, protected)
	bookingHandler.RegisterRoutes(protected)
	paymentHandler.RegisterProtectedRoutes(protected)
	reviewHandler.RegisterRoutes(public, protected, adminGroup)
	profileHandler.RegisterRoutes(public, protected)
	adminHandler.RegisterRoutes(adminGroup)

	return r, nil
}
