package repository

import (
	"database/sql"
	"errors"
	"time"

	"thinkfirst/internal/database"
	"thinkfirst/internal/models"
)

// ErrCapacityReached is returned when a redemption loses the race for
// the last family slot. The transactional re-check here narrows the
// window the service-level validation leaves open.
var ErrCapacityReached = errors.New("family link is at capacity")

// FamilyRepository persists invite codes, their linked accounts and
// each student's own link record.
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// GetByCode retrieves a family link by invite code, with its linked
// accounts loaded. Returns nil if the code is unknown.
func (r *FamilyRepository) GetByCode(code string) (*models.FamilyLink, error) {
	return r.getOne(`code = ?`, code)
}

// GetBySubscription retrieves the single active link for a subscription
func (r *FamilyRepository) GetBySubscription(subscriptionID string) (*models.FamilyLink, error) {
	return r.getOne(`subscription_id = ?`, subscriptionID)
}

// GetByParent retrieves the link minted by a parent
func (r *FamilyRepository) GetByParent(parentUserID string) (*models.FamilyLink, error) {
	return r.getOne(`parent_user_id = ?`, parentUserID)
}

func (r *FamilyRepository) getOne(where string, arg interface{}) (*models.FamilyLink, error) {
	query := `
		SELECT id, code, parent_user_id, subscription_id, max_accounts, pool_freezes, created_at
		FROM family_links WHERE ` + where

	var link models.FamilyLink
	err := r.db.QueryRow(query, arg).Scan(
		&link.ID, &link.Code, &link.ParentUserID, &link.SubscriptionID,
		&link.MaxAccounts, &link.PoolFreezes, &link.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	accounts, err := r.getLinkedAccounts(link.ID)
	if err != nil {
		return nil, err
	}
	link.LinkedAccounts = accounts
	return &link, nil
}

func (r *FamilyRepository) getLinkedAccounts(linkID int64) ([]string, error) {
	rows, err := r.db.Query(`SELECT student_user_id FROM linked_accounts WHERE family_link_id = ? ORDER BY id ASC`, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		accounts = append(accounts, id)
	}
	return accounts, rows.Err()
}

// Replace installs a new invite code as the subscription's single
// active one. Memberships belong to the subscription, not the code:
// linked accounts and each member's own link record follow the new
// code, so rotation only stops the old code from being redeemed.
func (r *FamilyRepository) Replace(link *models.FamilyLink) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var prevID int64
	var prevCode string
	err = tx.QueryRow(`SELECT id, code FROM family_links WHERE subscription_id = ?`, link.SubscriptionID).Scan(&prevID, &prevCode)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if err == nil {
		// Rotation: rewrite the existing row so linked_accounts keeps
		// pointing at it, and move the members' own records to the new
		// code.
		if _, err := tx.Exec(
			`UPDATE family_links SET code = ?, parent_user_id = ?, max_accounts = ?, pool_freezes = ?, created_at = ? WHERE id = ?`,
			link.Code, link.ParentUserID, link.MaxAccounts, link.PoolFreezes, link.CreatedAt, prevID,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE student_links SET code = ? WHERE code = ?`, link.Code, prevCode); err != nil {
			return err
		}
		link.ID = prevID
	} else {
		id, err := tx.ExecReturningID(
			`INSERT INTO family_links (code, parent_user_id, subscription_id, max_accounts, pool_freezes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			link.Code, link.ParentUserID, link.SubscriptionID, link.MaxAccounts, link.PoolFreezes, link.CreatedAt,
		)
		if err != nil {
			return err
		}
		link.ID = id
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	accounts, err := r.getLinkedAccounts(link.ID)
	if err != nil {
		return err
	}
	link.LinkedAccounts = accounts
	return nil
}

// LinkStudent appends a student to the link's membership and writes the
// student's own link record, re-checking capacity inside a transaction.
func (r *FamilyRepository) LinkStudent(link *models.FamilyLink, studentUserID string, now time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM linked_accounts WHERE family_link_id = ?`, link.ID).Scan(&count); err != nil {
		return err
	}
	if count >= link.MaxAccounts {
		return ErrCapacityReached
	}

	if _, err := tx.Exec(
		`INSERT INTO linked_accounts (family_link_id, student_user_id, linked_at) VALUES (?, ?, ?)`,
		link.ID, studentUserID, now,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM student_links WHERE student_user_id = ?`, studentUserID); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO student_links (student_user_id, code, linked_at) VALUES (?, ?, ?)`,
		studentUserID, link.Code, now,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// UnlinkStudent removes a student from any membership and always clears
// their own link record. Removing an absent student is not an error.
func (r *FamilyRepository) UnlinkStudent(studentUserID string) error {
	if _, err := r.db.Exec(`DELETE FROM linked_accounts WHERE student_user_id = ?`, studentUserID); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM student_links WHERE student_user_id = ?`, studentUserID)
	return err
}

// GetStudentLink retrieves a student's own link record, or nil
func (r *FamilyRepository) GetStudentLink(studentUserID string) (*models.StudentLink, error) {
	query := `SELECT code, linked_at FROM student_links WHERE student_user_id = ?`

	link := models.StudentLink{StudentUserID: studentUserID}
	err := r.db.QueryRow(query, studentUserID).Scan(&link.Code, &link.LinkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// SetPoolFreezes writes the shared freeze pool counter for a link
func (r *FamilyRepository) SetPoolFreezes(linkID int64, poolFreezes int) error {
	_, err := r.db.Exec(`UPDATE family_links SET pool_freezes = ? WHERE id = ?`, poolFreezes, linkID)
	return err
}
