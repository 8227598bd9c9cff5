package repository

import (
	"database/sql"
	"errors"

	"thinkfirst/internal/database"
	"thinkfirst/internal/models"
)

// SubscriptionRepository persists the plan tier and family-membership
// flag the billing collaborator pushes down per user.
type SubscriptionRepository struct {
	db *database.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetByUserID retrieves a user's subscription, or nil if none exists
func (r *SubscriptionRepository) GetByUserID(userID string) (*models.Subscription, error) {
	query := `
		SELECT id, plan, is_family_member, status, created_at, updated_at
		FROM subscriptions WHERE user_id = ?
	`

	var sub models.Subscription
	var plan string
	err := r.db.QueryRow(query, userID).Scan(
		&sub.ID, &plan, &sub.IsFamilyMember, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub.UserID = userID
	sub.Plan = models.PlanTier(plan)
	return &sub, nil
}

// List returns every subscription, for the monthly grant sweep
func (r *SubscriptionRepository) List() ([]models.Subscription, error) {
	query := `SELECT id, user_id, plan, is_family_member, status, created_at, updated_at FROM subscriptions ORDER BY user_id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var plan string
		if err := rows.Scan(&sub.ID, &sub.UserID, &plan, &sub.IsFamilyMember, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		sub.Plan = models.PlanTier(plan)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Upsert writes a subscription record
func (r *SubscriptionRepository) Upsert(sub *models.Subscription) error {
	update := `UPDATE subscriptions SET plan = ?, is_family_member = ?, status = ?, updated_at = ? WHERE user_id = ?`
	result, err := r.db.Exec(update, string(sub.Plan), sub.IsFamilyMember, sub.Status, sub.UpdatedAt, sub.UserID)
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

	insert := `INSERT INTO subscriptions (id, user_id, plan, is_family_member, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(insert, sub.ID, sub.UserID, string(sub.Plan), sub.IsFamilyMember, sub.Status, sub.CreatedAt, sub.UpdatedAt)
	return err
}
