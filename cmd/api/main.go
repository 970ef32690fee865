package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"localguide/internal/config"
	"localguide/internal/database"
	"localguide/internal/events"
	"localguide/internal/modules/live"
	"localguide/internal/modules/payment"
	jwtsvc "localguide/internal/pkg/jwt"
	"localguide/internal/pkg/logger"
	"localguide/internal/server"
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
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("database handle unavailable")
	}
	defer sqlDB.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
	} else {
		log.Warn("REDIS_ADDR not set, auth rate limiting disabled")
	}

	var sinks []events.Notifier
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, booking events will not be published")
		} else {
			defer pub.Close()
			sinks = append(sinks, pub)
		}
	}
	if cfg.TelegramBotToken != "" {
		tg, err := events.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.WithError(err).Warn("telegram notifier disabled")
		} else {
			sinks = append(sinks, tg)
		}
	}

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, payment calls will fail")
	}

	hub := live.NewHub()
	defer hub.Close()

	router, err := server.NewRouter(server.Deps{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Tokens:  jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Gateway: payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		Redis:   rdb,
		Hub:     hub,
		Sinks:   sinks,
	})
	if err != nil {
		log.WithError(err).Fatal("router setup failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "env": cfg.AppEnv}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
