package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"thinkfirst/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version          string                   `json:"version"`
	ExportedAt       time.Time                `json:"exported_at"`
	Subscriptions    []SubscriptionBackup     `json:"subscriptions"`
	StreakStates     []StreakStateBackup      `json:"streak_states"`
	FreezeEvents     []FreezeEventBackup      `json:"freeze_events"`
	GuardianSettings []GuardianSettingsBackup `json:"guardian_settings"`
	FamilyLinks      []FamilyLinkBackup       `json:"family_links"`
	StudentLinks     []StudentLinkBackup      `json:"student_links"`
}

// SubscriptionBackup represents a subscription record for backup
type SubscriptionBackup struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Plan           string    `json:"plan"`
	IsFamilyMember bool      `json:"is_family_member"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StreakStateBackup represents a streak state record for backup
type StreakStateBackup struct {
	UserID          string     `json:"user_id"`
	PersonalFreezes int        `json:"personal_freezes"`
	LastFreezeGrant *time.Time `json:"last_freeze_grant"`
	LastActivity    *time.Time `json:"last_activity"`
}

// FreezeEventBackup represents one freeze ledger entry for backup
type FreezeEventBackup struct {
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// GuardianSettingsBackup represents guardian settings for backup. The
// pin hash travels with the backup; lockout state does not.
type GuardianSettingsBackup struct {
	UserID                string    `json:"user_id"`
	PINHash               string    `json:"pin_hash"`
	ForceMasteryMode      bool      `json:"force_mastery_mode"`
	BlockMercyButton      bool      `json:"block_mercy_button"`
	FrictionInterstitials bool      `json:"friction_interstitials"`
	RequireReason         bool      `json:"require_reason"`
	ReportEmail           string    `json:"report_email"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// FamilyLinkBackup represents a family link and its members for backup
type FamilyLinkBackup struct {
	Code           string    `json:"code"`
	ParentUserID   string    `json:"parent_user_id"`
	SubscriptionID string    `json:"subscription_id"`
	MaxAccounts    int       `json:"max_accounts"`
	PoolFreezes    int       `json:"pool_freezes"`
	CreatedAt      time.Time `json:"created_at"`
	LinkedAccounts []string  `json:"linked_accounts"`
}

// StudentLinkBackup represents a student-to-family link for backup
type StudentLinkBackup struct {
	StudentUserID string    `json:"student_user_id"`
	Code          string    `json:"code"`
	LinkedAt      time.Time `json:"linked_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return s.ExportToWriter(file)
}

// ExportToWriter writes a complete backup to the given writer
func (s *BackupService) ExportToWriter(w io.Writer) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportSubscriptions(backup); err != nil {
		return fmt.Errorf("failed to export subscriptions: %w", err)
	}
	if err := s.exportStreakStates(backup); err != nil {
		return fmt.Errorf("failed to export streak states: %w", err)
	}
	if err := s.exportFreezeEvents(backup); err != nil {
		return fmt.Errorf("failed to export freeze events: %w", err)
	}
	if err := s.exportGuardianSettings(backup); err != nil {
		return fmt.Errorf("failed to export guardian settings: %w", err)
	}
	if err := s.exportFamilyLinks(backup); err != nil {
		return fmt.Errorf("failed to export family links: %w", err)
	}
	if err := s.exportStudentLinks(backup); err != nil {
		return fmt.Errorf("failed to export student links: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d subscriptions, %d streak states, %d freeze events, %d guardian settings, %d family links, %d student links",
		len(backup.Subscriptions), len(backup.StreakStates), len(backup.FreezeEvents),
		len(backup.GuardianSettings), len(backup.FamilyLinks), len(backup.StudentLinks))

	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in order of dependencies
	if err := s.importSubscriptions(backup.Subscriptions); err != nil {
		return fmt.Errorf("failed to import subscriptions: %w", err)
	}
	if err := s.importStreakStates(backup.StreakStates); err != nil {
		return fmt.Errorf("failed to import streak states: %w", err)
	}
	if err := s.importFreezeEvents(backup.FreezeEvents); err != nil {
		return fmt.Errorf("failed to import freeze events: %w", err)
	}
	if err := s.importGuardianSettings(backup.GuardianSettings); err != nil {
		return fmt.Errorf("failed to import guardian settings: %w", err)
	}
	if err := s.importFamilyLinks(backup.FamilyLinks); err != nil {
		return fmt.Errorf("failed to import family links: %w", err)
	}
	if err := s.importStudentLinks(backup.StudentLinks); err != nil {
		return fmt.Errorf("failed to import student links: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

// ClearAllData removes every row from every table. Used by the import
// command's -clear flag.
func (s *BackupService) ClearAllData() error {
	tables := []string{
		"student_links",
		"linked_accounts",
		"family_links",
		"pin_security",
		"guardian_settings",
		"freeze_events",
		"streak_states",
		"subscriptions",
	}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *BackupService) exportSubscriptions(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, user_id, plan, is_family_member, status, created_at, updated_at FROM subscriptions`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sub SubscriptionBackup
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.IsFamilyMember, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return err
		}
		backup.Subscriptions = append(backup.Subscriptions, sub)
	}
	return rows.Err()
}

func (s *BackupService) exportStreakStates(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT user_id, personal_freezes, last_freeze_grant, last_activity FROM streak_states`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st StreakStateBackup
		var grant, activity sql.NullTime
		if err := rows.Scan(&st.UserID, &st.PersonalFreezes, &grant, &activity); err != nil {
			return err
		}
		if grant.Valid {
			st.LastFreezeGrant = &grant.Time
		}
		if activity.Valid {
			st.LastActivity = &activity.Time
		}
		backup.StreakStates = append(backup.StreakStates, st)
	}
	return rows.Err()
}

func (s *BackupService) exportFreezeEvents(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT user_id, event_type, source, created_at FROM freeze_events ORDER BY id ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ev FreezeEventBackup
		if err := rows.Scan(&ev.UserID, &ev.EventType, &ev.Source, &ev.CreatedAt); err != nil {
			return err
		}
		backup.FreezeEvents = append(backup.FreezeEvents, ev)
	}
	return rows.Err()
}

func (s *BackupService) exportGuardianSettings(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT user_id, pin_hash, force_mastery_mode, block_mercy_button, friction_interstitials, require_reason, report_email, created_at, updated_at FROM guardian_settings`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g GuardianSettingsBackup
		if err := rows.Scan(&g.UserID, &g.PINHash, &g.ForceMasteryMode, &g.BlockMercyButton, &g.FrictionInterstitials, &g.RequireReason, &g.ReportEmail, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return err
		}
		backup.GuardianSettings = append(backup.GuardianSettings, g)
	}
	return rows.Err()
}

func (s *BackupService) exportFamilyLinks(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, code, parent_user_id, subscription_id, max_accounts, pool_freezes, created_at FROM family_links`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var links []FamilyLinkBackup
	var ids []int64
	for rows.Next() {
		var link FamilyLinkBackup
		var id int64
		if err := rows.Scan(&id, &link.Code, &link.ParentUserID, &link.SubscriptionID, &link.MaxAccounts, &link.PoolFreezes, &link.CreatedAt); err != nil {
			return err
		}
		links = append(links, link)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i, id := range ids {
		members, err := s.db.Query(`SELECT student_user_id FROM linked_accounts WHERE family_link_id = ? ORDER BY id ASC`, id)
		if err != nil {
			return err
		}
		for members.Next() {
			var studentID string
			if err := members.Scan(&studentID); err != nil {
				members.Close()
				return err
			}
			links[i].LinkedAccounts = append(links[i].LinkedAccounts, studentID)
		}
		if err := members.Err(); err != nil {
			members.Close()
			return err
		}
		members.Close()
	}

	backup.FamilyLinks = links
	return nil
}

func (s *BackupService) exportStudentLinks(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT student_user_id, code, linked_at FROM student_links`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sl StudentLinkBackup
		if err := rows.Scan(&sl.StudentUserID, &sl.Code, &sl.LinkedAt); err != nil {
			return err
		}
		backup.StudentLinks = append(backup.StudentLinks, sl)
	}
	return rows.Err()
}

func (s *BackupService) importSubscriptions(subs []SubscriptionBackup) error {
	for _, sub := range subs {
		_, err := s.db.Exec(`INSERT INTO subscriptions (id, user_id, plan, is_family_member, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.UserID, sub.Plan, sub.IsFamilyMember, sub.Status, sub.CreatedAt, sub.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importStreakStates(states []StreakStateBackup) error {
	for _, st := range states {
		_, err := s.db.Exec(`INSERT INTO streak_states (user_id, personal_freezes, last_freeze_grant, last_activity) VALUES (?, ?, ?, ?)`,
			st.UserID, st.PersonalFreezes, st.LastFreezeGrant, st.LastActivity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importFreezeEvents(events []FreezeEventBackup) error {
	for _, ev := range events {
		_, err := s.db.Exec(`INSERT INTO freeze_events (user_id, event_type, source, created_at) VALUES (?, ?, ?, ?)`,
			ev.UserID, ev.EventType, ev.Source, ev.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importGuardianSettings(settings []GuardianSettingsBackup) error {
	for _, g := range settings {
		_, err := s.db.Exec(`INSERT INTO guardian_settings (user_id, pin_hash, force_mastery_mode, block_mercy_button, friction_interstitials, require_reason, report_email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.UserID, g.PINHash, g.ForceMasteryMode, g.BlockMercyButton, g.FrictionInterstitials, g.RequireReason, g.ReportEmail, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importFamilyLinks(links []FamilyLinkBackup) error {
	for _, link := range links {
		id, err := s.db.ExecReturningID(`INSERT INTO family_links (code, parent_user_id, subscription_id, max_accounts, pool_freezes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			link.Code, link.ParentUserID, link.SubscriptionID, link.MaxAccounts, link.PoolFreezes, link.CreatedAt)
		if err != nil {
			return err
		}
		for _, studentID := range link.LinkedAccounts {
			_, err := s.db.Exec(`INSERT INTO linked_accounts (family_link_id, student_user_id, linked_at) VALUES (?, ?, ?)`,
				id, studentID, link.CreatedAt)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BackupService) importStudentLinks(links []StudentLinkBackup) error {
	for _, sl := range links {
		_, err := s.db.Exec(`INSERT INTO student_links (student_user_id, code, linked_at) VALUES (?, ?, ?)`,
			sl.StudentUserID, sl.Code, sl.LinkedAt)
		if err != nil {
			return err
		}
	}
	return nil
}
