package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thinkfirst/internal/attempt"
	"thinkfirst/internal/config"
	"thinkfirst/internal/database"
	"thinkfirst/internal/handlers"
	"thinkfirst/internal/repository"
	"thinkfirst/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	streakRepo := repository.NewStreakRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	// Initialize services
	tokenSecret := []byte(cfg.SessionSecret)
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	streakService := service.NewStreakService(streakRepo, subRepo, familyRepo, cfg.StreakResetHour)
	guardianService := service.NewGuardianService(guardianRepo, tokenSecret)
	familyService := service.NewFamilyService(familyRepo, subRepo, emailService)

	// Initialize handlers
	handlers.InitPrometheus()
	middleware := handlers.NewMiddleware(guardianService, tokenSecret)
	streakHandler := handlers.NewStreakHandler(streakService)
	guardianHandler := handlers.NewGuardianHandler(guardianService)
	familyHandler := handlers.NewFamilyHandler(familyService)
	attemptHandler := handlers.NewAttemptHandler(attempt.NewGate(cfg.AttemptMinWords, nil))

	// Setup routes
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Streak routes
	mux.HandleFunc("GET /streak/state", middleware.RequireAuth(streakHandler.GetState))
	mux.HandleFunc("POST /streak/checkin", middleware.RequireAuth(streakHandler.CheckIn))
	mux.HandleFunc("POST /streak/activity", middleware.RequireAuth(streakHandler.RecordActivity))

	// Guardian routes
	mux.HandleFunc("POST /guardian/pin", middleware.RequireAuth(guardianHandler.CreatePIN))
	mux.HandleFunc("POST /guardian/pin/verify", middleware.RequireAuth(middleware.RateLimit(guardianHandler.VerifyPIN)))
	mux.HandleFunc("POST /guardian/pin/change", middleware.RequireAuth(middleware.RateLimit(guardianHandler.ChangePIN)))
	mux.HandleFunc("GET /guardian/settings", middleware.RequireAuth(guardianHandler.GetSettings))
	mux.HandleFunc("PATCH /guardian/settings", middleware.RequireGuardian(guardianHandler.UpdateSettings))
	mux.HandleFunc("DELETE /guardian/settings", middleware.RequireGuardian(guardianHandler.Reset))

	// Family routes
	mux.HandleFunc("GET /family", middleware.RequireAuth(familyHandler.GetFamily))
	mux.HandleFunc("POST /family/code", middleware.RequireAuth(familyHandler.GenerateCode))
	mux.HandleFunc("POST /family/code/validate", middleware.RequireAuth(middleware.RateLimit(familyHandler.ValidateCode)))
	mux.HandleFunc("POST /family/join", middleware.RequireAuth(middleware.RateLimit(familyHandler.Join)))
	mux.HandleFunc("POST /family/leave", middleware.RequireAuth(familyHandler.Leave))
	mux.HandleFunc("POST /family/invite", middleware.RequireAuth(middleware.RateLimit(familyHandler.SendInvite)))

	// Attempt routes
	mux.HandleFunc("POST /attempts/check", middleware.RequireAuth(attemptHandler.Check))

	// Wrap with logging and monitoring middleware
	handler := handlers.Logging(handlers.Monitor(mux))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
