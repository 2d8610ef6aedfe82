package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

const alertColumns = `id, user_id, wishlist_id, discogs_release_id, target_price, last_min_price, currency, last_checked_at, created_at, updated_at`

// PriceAlertRepository persists one [models.PriceAlert] per wishlist item.
type PriceAlertRepository struct {
	db *sql.DB
}

func NewPriceAlertRepository(db *sql.DB) *PriceAlertRepository {
	return &PriceAlertRepository{db: db}
}

// Upsert inserts alert or replaces the existing alert for the same wishlist item.
// On return alert carries the stored ID and timestamps.
func (r *PriceAlertRepository) Upsert(alert *models.PriceAlert) error {
	if alert.WishlistID == "" || alert.UserID == "" {
		return fmt.Errorf("%w: alert requires user and wishlist item", shared.ErrInvalidInput)
	}
	if alert.TargetPrice <= 0 {
		return fmt.Errorf("%w: target price must be positive", shared.ErrInvalidInput)
	}
	if alert.Currency == "" {
		alert.Currency = "USD"
	}

	now := time.Now()
	query := `
		INSERT INTO price_alerts (` + alertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wishlist_id) DO UPDATE SET
			target_price = excluded.target_price,
			last_min_price = excluded.last_min_price,
			currency = excluded.currency,
			last_checked_at = excluded.last_checked_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		alert.UserID,
		alert.WishlistID,
		alert.DiscogsReleaseID,
		alert.TargetPrice,
		alert.LastMinPrice,
		alert.Currency,
		alert.LastCheckedAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to set price alert: %w", err)
	}

	stored, err := r.GetByWishlist(alert.WishlistID)
	if err != nil {
		return err
	}
	*alert = *stored
	return nil
}

// GetByWishlist returns the alert on a wishlist item.
func (r *PriceAlertRepository) GetByWishlist(wishlistID string) (*models.PriceAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM price_alerts WHERE wishlist_id = ?`
	alert, err := scanAlert(r.db.QueryRow(query, wishlistID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no alert for %s", shared.ErrWishlistNotFound, wishlistID)
	}
	return alert, err
}

// ListByUser returns every alert the user has set.
func (r *PriceAlertRepository) ListByUser(userID string) ([]*models.PriceAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM price_alerts WHERE user_id = ? ORDER BY created_at ASC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.PriceAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Delete removes the alert on a wishlist item owned by userID.
func (r *PriceAlertRepository) Delete(userID, wishlistID string) error {
	result, err := r.db.Exec(`DELETE FROM price_alerts WHERE wishlist_id = ? AND user_id = ?`, wishlistID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete price alert: %w", err)
	}
	return mustAffect(result, fmt.Errorf("%w: no alert for %s", shared.ErrWishlistNotFound, wishlistID))
}

func scanAlert(row scanner) (*models.PriceAlert, error) {
	var (
		a           models.PriceAlert
		lastMin     sql.NullFloat64
		lastChecked sql.NullTime
	)

	err := row.Scan(&a.ID, &a.UserID, &a.WishlistID, &a.DiscogsReleaseID, &a.TargetPrice,
		&lastMin, &a.Currency, &lastChecked, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastMin.Valid {
		a.LastMinPrice = &lastMin.Float64
	}
	if lastChecked.Valid {
		a.LastCheckedAt = &lastChecked.Time
	}
	return &a, nil
}
