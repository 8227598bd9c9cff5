package service

import (
	"context"
	"fmt"
	"time"

	"thinkfirst/internal/repository"
)

// WeeklySummary holds one student's figures for a report window.
type WeeklySummary struct {
	DaysActive  int
	FreezesUsed int
}

// ReportService composes and sends the weekly guardian reports.
type ReportService struct {
	guardianRepo *repository.GuardianRepository
	streakRepo   *repository.StreakRepository
	email        *EmailService
	now          func() time.Time
}

// NewReportService creates a new report service
func NewReportService(guardianRepo *repository.GuardianRepository, streakRepo *repository.StreakRepository, email *EmailService) *ReportService {
	return &ReportService{
		guardianRepo: guardianRepo,
		streakRepo:   streakRepo,
		email:        email,
		now:          time.Now,
	}
}

// ComposeWeekly gathers a student's trailing seven days of activity
// and freeze spending.
func (s *ReportService) ComposeWeekly(userID string) (WeeklySummary, error) {
	since := s.now().AddDate(0, 0, -7)

	days, err := s.streakRepo.CountActiveDaysSince(userID, since)
	if err != nil {
		return WeeklySummary{}, fmt.Errorf("failed to count active days: %w", err)
	}
	used, err := s.streakRepo.CountFreezesUsedSince(userID, since)
	if err != nil {
		return WeeklySummary{}, fmt.Errorf("failed to count freezes used: %w", err)
	}
	return WeeklySummary{DaysActive: days, FreezesUsed: used}, nil
}

// SendWeeklyReports emails a summary to every guardian with a report
// address configured. Returns how many reports went out.
func (s *ReportService) SendWeeklyReports(ctx context.Context) (int, error) {
	recipients, err := s.guardianRepo.ListReportRecipients()
	if err != nil {
		return 0, fmt.Errorf("failed to list report recipients: %w", err)
	}

	sent := 0
	for _, g := range recipients {
		summary, err := s.ComposeWeekly(g.UserID)
		if err != nil {
			return sent, err
		}
		if err := s.email.SendWeeklyReportEmail(ctx, g.ReportEmail, g.UserID, summary.DaysActive, summary.FreezesUsed); err != nil {
			return sent, fmt.Errorf("failed to send weekly report for %s: %w", g.UserID, err)
		}
		sent++
	}
	return sent, nil
}
