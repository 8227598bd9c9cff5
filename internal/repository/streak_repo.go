package repository

import (
	"database/sql"
	"errors"
	"time"

	"thinkfirst/internal/database"
	"thinkfirst/internal/models"
)

// StreakRepository persists per-user freeze accounting. The shared
// family pool is NOT stored here. It lives on the family link row and
// is composed into the loaded state by the service layer.
type StreakRepository struct {
	db *database.DB
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(db *database.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// GetState retrieves the freeze state for a user, including the full
// event history in insertion order. Returns nil if no state exists yet.
func (r *StreakRepository) GetState(userID string) (*models.FreezeState, error) {
	query := `SELECT personal_freezes, last_freeze_grant, last_activity FROM streak_states WHERE user_id = ?`

	var st models.FreezeState
	var lastGrant, lastActivity sql.NullTime

	err := r.db.QueryRow(query, userID).Scan(&st.PersonalFreezes, &lastGrant, &lastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	st.UserID = userID
	if lastGrant.Valid {
		t := lastGrant.Time
		st.LastFreezeGrant = &t
	}
	if lastActivity.Valid {
		t := lastActivity.Time
		st.LastActivity = &t
	}

	history, err := r.getEvents(userID)
	if err != nil {
		return nil, err
	}
	st.History = history

	return &st, nil
}

// SaveState upserts the personal portion of a freeze state
func (r *StreakRepository) SaveState(st *models.FreezeState) error {
	update := `UPDATE streak_states SET personal_freezes = ?, last_freeze_grant = ?, last_activity = ? WHERE user_id = ?`
	result, err := r.db.Exec(update, st.PersonalFreezes, nullTime(st.LastFreezeGrant), nullTime(st.LastActivity), st.UserID)
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

	insert := `INSERT INTO streak_states (user_id, personal_freezes, last_freeze_grant, last_activity) VALUES (?, ?, ?, ?)`
	_, err = r.db.Exec(insert, st.UserID, st.PersonalFreezes, nullTime(st.LastFreezeGrant), nullTime(st.LastActivity))
	return err
}

// AppendEvents adds new entries to the append-only freeze audit log.
// Existing rows are never updated or removed.
func (r *StreakRepository) AppendEvents(userID string, events []models.FreezeEvent) error {
	query := `INSERT INTO freeze_events (user_id, event_type, source, created_at) VALUES (?, ?, ?, ?)`
	for _, ev := range events {
		if _, err := r.db.Exec(query, userID, string(ev.Type), string(ev.Source), ev.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// MarkActiveDay records that a user was active on a boundary day.
// Marking the same day again is a no-op.
func (r *StreakRepository) MarkActiveDay(userID string, day time.Time) error {
	d := day.Format("2006-01-02")

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM activity_days WHERE user_id = ? AND day = ?`, userID, d).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := r.db.Exec(`INSERT INTO activity_days (user_id, day) VALUES (?, ?)`, userID, d)
	return err
}

// CountActiveDaysSince counts the distinct boundary days a user was
// active on, from since onward.
func (r *StreakRepository) CountActiveDaysSince(userID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM activity_days WHERE user_id = ? AND day >= ?`,
		userID, since.Format("2006-01-02"),
	).Scan(&count)
	return count, err
}

// CountFreezesUsedSince counts consumed and borrowed events in a window
func (r *StreakRepository) CountFreezesUsedSince(userID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM freeze_events WHERE user_id = ? AND event_type IN (?, ?) AND created_at >= ?`,
		userID, string(models.FreezeConsumed), string(models.FreezeBorrowed), since,
	).Scan(&count)
	return count, err
}

// getEvents loads the audit log in insertion order
func (r *StreakRepository) getEvents(userID string) ([]models.FreezeEvent, error) {
	query := `SELECT event_type, source, created_at FROM freeze_events WHERE user_id = ? ORDER BY id ASC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.FreezeEvent
	for rows.Next() {
		var ev models.FreezeEvent
		var evType, source string
		if err := rows.Scan(&evType, &source, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = models.FreezeEventType(evType)
		ev.Source = models.FreezeSource(source)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// nullTime converts an optional timestamp to its SQL representation
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
