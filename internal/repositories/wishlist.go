package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

const wishlistColumns = `id, sequence, user_id, discogs_release_id, title, artist, year, cover_image, thumb, genres, labels, notes, created_at`

// WishlistRepository persists [models.WishlistItem] rows.
//
// A user can hold a given Discogs release once; repeats fail with [shared.ErrAlreadyInWishlist].
type WishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Create inserts item with a generated ID and sequence.
func (r *WishlistRepository) Create(item *models.WishlistItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "wishlist")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	genres, err := encodeList(item.Genres())
	if err != nil {
		return err
	}
	labels, err := encodeList(item.Labels())
	if err != nil {
		return err
	}

	item.SetID(shared.GenerateID())
	item.SetSequence(sequence)

	query := `INSERT INTO wishlist (` + wishlistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		item.ID(),
		sequence,
		item.UserID(),
		item.ReleaseID(),
		item.Title(),
		item.Artist(),
		item.Year(),
		nullString(item.CoverImage()),
		nullString(item.Thumb()),
		genres,
		labels,
		nullString(item.Notes()),
		item.CreatedAt(),
	)
	if isUniqueViolation(err) {
		item.SetID("")
		return fmt.Errorf("%w: release %d", shared.ErrAlreadyInWishlist, item.ReleaseID())
	}
	if err != nil {
		return fmt.Errorf("failed to insert wishlist item: %w", err)
	}

	return nil
}

// Get retrieves a wishlist item by ID.
func (r *WishlistRepository) Get(id string) (*models.WishlistItem, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlist WHERE id = ?`
	return scanWishlistItem(r.db.QueryRow(query, id))
}

// GetForUser retrieves a wishlist item only if userID owns it.
func (r *WishlistRepository) GetForUser(userID, id string) (*models.WishlistItem, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlist WHERE id = ? AND user_id = ?`
	return scanWishlistItem(r.db.QueryRow(query, id, userID))
}

// ListByUser returns the user's wishlist, newest first.
func (r *WishlistRepository) ListByUser(userID string) ([]*models.WishlistItem, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlist WHERE user_id = ? ORDER BY created_at DESC, sequence DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	items := []*models.WishlistItem{}
	for rows.Next() {
		item, err := scanWishlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// Contains reports whether the user already wants releaseID.
func (r *WishlistRepository) Contains(userID string, releaseID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM wishlist WHERE user_id = ? AND discogs_release_id = ?)`, userID, releaseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query wishlist: %w", err)
	}
	return exists, nil
}

// Delete removes the user's wishlist item. Its price alert goes with it.
func (r *WishlistRepository) Delete(userID, id string) error {
	result, err := r.db.Exec(`DELETE FROM wishlist WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", err)
	}
	return mustAffect(result, fmt.Errorf("%w: %s", shared.ErrWishlistNotFound, id))
}

func scanWishlistItem(row scanner) (*models.WishlistItem, error) {
	var (
		id, userID, title, artist string
		sequence, releaseID       int
		year                      sql.NullInt64
		cover, thumb, notes       sql.NullString
		genres, labels            sql.NullString
		createdAt                 time.Time
	)

	err := row.Scan(&id, &sequence, &userID, &releaseID, &title, &artist, &year, &cover, &thumb, &genres, &labels, &notes, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrWishlistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
	}

	item := models.NewWishlistItem(userID, releaseID, title, artist)
	item.SetID(id)
	item.SetSequence(sequence)
	item.SetCreatedAt(createdAt)
	item.SetUpdatedAt(createdAt)
	item.SetImages(cover.String, thumb.String)
	item.SetNotes(notes.String)
	if year.Valid {
		y := int(year.Int64)
		item.SetYear(&y)
	}

	g, err := decodeList(genres)
	if err != nil {
		return nil, err
	}
	l, err := decodeList(labels)
	if err != nil {
		return nil, err
	}
	item.SetGenres(g)
	item.SetLabels(l)

	return item, nil
}

func encodeList(v []string) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return v, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
