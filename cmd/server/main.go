package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexora-backend/internal/config"
	"lexora-backend/internal/database"
	"lexora-backend/internal/handlers"
	"lexora-backend/internal/logger"
	"lexora-backend/internal/mastery"
	"lexora-backend/internal/middleware"
	"lexora-backend/internal/repository"
	"lexora-backend/internal/router"
	"lexora-backend/internal/services"
	"lexora-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting lexora backend", "env", cfg.Env)

	schedule, err := mastery.NewSchedule(cfg.SchedulePolicy)
	if err != nil {
		log.Fatal("invalid schedule policy", "policy", cfg.SchedulePolicy, "error", err)
	}

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations", log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Initialize Repositories ────
	wordRepo := repository.NewWordRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	catalog := repository.NewCachedWordRepo(wordRepo, redisClients.Cache, cfg.CatalogCacheTTL, log)

	// ──── Initialize Services ────
	clock := mastery.SystemClock{}
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	// The hub subscribes per connection; publishes fall back to it when redis is unavailable.
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, log)
	publisher := services.NewRedisPublisher(redisClients.Cache, wsHub, log)
	vocabularyService := services.NewVocabularyService(
		catalog,
		progressRepo,
		schedule,
		clock,
		mastery.NewLockedRand(time.Now().UnixNano()),
		publisher,
		log,
		cfg.DefaultBatchSize,
		cfg.MaxBatchSize,
	)
	log.Info("review engine ready", "schedule", schedule.Name(), "default_batch", cfg.DefaultBatchSize, "max_batch", cfg.MaxBatchSize)

	reminders := services.NewReminderScheduler(progressRepo, redisClients.Cache, publisher, clock, cfg.ReminderInterval, log)
	if err := reminders.Start(); err != nil {
		log.Fatal("reminder scheduler failed to start", "error", err)
	}

	// ──── Step 5: Start HTTP Server ────
	submitLimiter := middleware.NewRateLimiter(cfg.SubmitRateLimit, time.Minute)
	r := router.New(
		jwtAuth,
		submitLimiter,
		handlers.NewVocabularyHandler(vocabularyService, log),
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		reminders.Stop()
		submitLimiter.Stop()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("http shutdown incomplete", "error", err)
		}
	}()

	log.Info("lexora backend ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
}
