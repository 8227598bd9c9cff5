package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"thinkfirst/internal/config"
	"thinkfirst/internal/database"
	"thinkfirst/internal/repository"
	"thinkfirst/internal/service"
)

// Periodic maintenance entry points, meant to be run from cron:
// "sweep grants" applies the monthly freeze allowance to every
// subscriber, "sweep reports" mails the weekly guardian summaries.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	cfg := config.Load()

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	streakRepo := repository.NewStreakRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	switch os.Args[1] {
	case "grants":
		streakService := service.NewStreakService(streakRepo, subRepo, familyRepo, cfg.StreakResetHour)
		handleGrants(streakService, subRepo)

	case "reports":
		emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
		if err != nil {
			log.Fatalf("Failed to create email service: %v", err)
		}
		reportService := service.NewReportService(guardianRepo, streakRepo, emailService)
		handleReports(reportService)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleGrants(streakService *service.StreakService, subRepo *repository.SubscriptionRepository) {
	subs, err := subRepo.List()
	if err != nil {
		log.Fatalf("Failed to list subscriptions: %v", err)
	}

	granted := 0
	for _, sub := range subs {
		_, did, err := streakService.GrantMonthly(sub.UserID)
		if err != nil {
			log.Fatalf("Grant failed for %s: %v", sub.UserID, err)
		}
		if did {
			granted++
		}
	}
	log.Printf("Monthly grant sweep complete: %d of %d subscribers granted", granted, len(subs))
}

func handleReports(reportService *service.ReportService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := reportService.SendWeeklyReports(ctx)
	if err != nil {
		log.Fatalf("Report sweep failed after %d reports: %v", sent, err)
	}
	log.Printf("Weekly report sweep complete: %d reports sent", sent)
}

func printUsage() {
	fmt.Println("ThinkFirst Maintenance Sweeps")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sweep grants     Apply the monthly freeze grant to every subscriber")
	fmt.Println("  sweep reports    Email the weekly guardian reports")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE           Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH           SQLite database path (default: ./thinkfirst.db)")
	fmt.Println("  DB_URL            PostgreSQL or MySQL connection URL")
	fmt.Println("  SES_FROM_EMAIL    Sender address for reports (reports are skipped when unset)")
}
