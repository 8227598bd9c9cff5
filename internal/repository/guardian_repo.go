package repository

import (
	"database/sql"
	"errors"

	"thinkfirst/internal/database"
	"thinkfirst/internal/models"
)

// GuardianRepository persists guardian settings and the separate PIN
// attempt/lockout state.
type GuardianRepository struct {
	db *database.DB
}

// NewGuardianRepository creates a new guardian repository
func NewGuardianRepository(db *database.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// GetSettings retrieves a guardian's settings, or nil if none exist
func (r *GuardianRepository) GetSettings(userID string) (*models.GuardianSettings, error) {
	query := `
		SELECT pin_hash, force_mastery_mode, block_mercy_button, friction_interstitials,
		       require_reason, report_email, created_at, updated_at
		FROM guardian_settings WHERE user_id = ?
	`

	var s models.GuardianSettings
	err := r.db.QueryRow(query, userID).Scan(
		&s.PINHash, &s.ForceMasteryMode, &s.BlockMercyButton, &s.FrictionInterstitials,
		&s.RequireReason, &s.ReportEmail, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.UserID = userID
	return &s, nil
}

// CreateSettings inserts fresh guardian settings
func (r *GuardianRepository) CreateSettings(s *models.GuardianSettings) error {
	query := `
		INSERT INTO guardian_settings
			(user_id, pin_hash, force_mastery_mode, block_mercy_button, friction_interstitials,
			 require_reason, report_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		s.UserID, s.PINHash, s.ForceMasteryMode, s.BlockMercyButton, s.FrictionInterstitials,
		s.RequireReason, s.ReportEmail, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// UpdateSettings writes the non-secret policy fields and updated_at
func (r *GuardianRepository) UpdateSettings(s *models.GuardianSettings) error {
	query := `
		UPDATE guardian_settings
		SET force_mastery_mode = ?, block_mercy_button = ?, friction_interstitials = ?,
		    require_reason = ?, report_email = ?, updated_at = ?
		WHERE user_id = ?
	`
	_, err := r.db.Exec(query,
		s.ForceMasteryMode, s.BlockMercyButton, s.FrictionInterstitials,
		s.RequireReason, s.ReportEmail, s.UpdatedAt, s.UserID,
	)
	return err
}

// UpdatePINHash stores a new PIN hash, stamping updated_at
func (r *GuardianRepository) UpdatePINHash(s *models.GuardianSettings) error {
	query := `UPDATE guardian_settings SET pin_hash = ?, updated_at = ? WHERE user_id = ?`
	_, err := r.db.Exec(query, s.PINHash, s.UpdatedAt, s.UserID)
	return err
}

// ListReportRecipients returns the settings rows with a report email
// configured, for the weekly report sweep.
func (r *GuardianRepository) ListReportRecipients() ([]models.GuardianSettings, error) {
	rows, err := r.db.Query(`SELECT user_id, report_email FROM guardian_settings WHERE report_email != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []models.GuardianSettings
	for rows.Next() {
		var s models.GuardianSettings
		if err := rows.Scan(&s.UserID, &s.ReportEmail); err != nil {
			return nil, err
		}
		recipients = append(recipients, s)
	}
	return recipients, rows.Err()
}

// DeleteSettings wipes a guardian's settings entirely (recovery path)
func (r *GuardianRepository) DeleteSettings(userID string) error {
	if _, err := r.db.Exec(`DELETE FROM guardian_settings WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM pin_security WHERE user_id = ?`, userID)
	return err
}

// GetPinSecurity retrieves attempt/lockout state. A missing row is a
// clean zero state, not an error.
func (r *GuardianRepository) GetPinSecurity(userID string) (*models.PinSecurity, error) {
	query := `SELECT attempt_count, lockout_until FROM pin_security WHERE user_id = ?`

	sec := models.PinSecurity{UserID: userID}
	var lockoutUntil sql.NullTime

	err := r.db.QueryRow(query, userID).Scan(&sec.AttemptCount, &lockoutUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return &sec, nil
	}
	if err != nil {
		return nil, err
	}
	if lockoutUntil.Valid {
		t := lockoutUntil.Time
		sec.LockoutUntil = &t
	}
	return &sec, nil
}

// SavePinSecurity upserts attempt/lockout state
func (r *GuardianRepository) SavePinSecurity(sec *models.PinSecurity) error {
	update := `UPDATE pin_security SET attempt_count = ?, lockout_until = ? WHERE user_id = ?`
	result, err := r.db.Exec(update, sec.AttemptCount, nullTime(sec.LockoutUntil), sec.UserID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	insert := `INSERT INTO pin_security (user_id, attempt_count, lockout_until) VALUES (?, ?, ?)`
	_, err = r.db.Exec(insert, sec.UserID, sec.AttemptCount, nullTime(sec.LockoutUntil))
	return err
}
