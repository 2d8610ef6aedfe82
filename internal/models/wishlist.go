package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WishlistItem is a release a user wants to acquire.
type WishlistItem struct {
	entity
	userID    string
	releaseID int
	title     string
	artist    string
	year      *int
	coverURL  string
	thumbURL  string
	genres    []string
	labels    []string
	notes     string
}

// NewWishlistItem creates a wishlist entry for userID and a Discogs release.
func NewWishlistItem(userID string, releaseID int, title, artist string) *WishlistItem {
	return &WishlistItem{entity: newEntity(0), userID: userID, releaseID: releaseID, title: title, artist: artist}
}

func (w *WishlistItem) UserID() string     { return w.userID }
func (w *WishlistItem) ReleaseID() int     { return w.releaseID }
func (w *WishlistItem) Title() string      { return w.title }
func (w *WishlistItem) Artist() string     { return w.artist }
func (w *WishlistItem) Year() *int         { return w.year }
func (w *WishlistItem) CoverImage() string { return w.coverURL }
func (w *WishlistItem) Thumb() string      { return w.thumbURL }
func (w *WishlistItem) Genres() []string   { return w.genres }
func (w *WishlistItem) Labels() []string   { return w.labels }
func (w *WishlistItem) Notes() string      { return w.notes }

func (w *WishlistItem) SetYear(y *int)                { w.year = y }
func (w *WishlistItem) SetImages(cover, thumb string) { w.coverURL, w.thumbURL = cover, thumb }
func (w *WishlistItem) SetGenres(g []string)          { w.genres = g }
func (w *WishlistItem) SetLabels(l []string)          { w.labels = l }
func (w *WishlistItem) SetNotes(n string)             { w.notes = n }

// Validate requires an owner, a positive release id, and a title.
func (w *WishlistItem) Validate() error {
	if w.userID == "" {
		return fmt.Errorf("user_id is required")
	}
	if w.releaseID <= 0 {
		return fmt.Errorf("invalid discogs release id: %d", w.releaseID)
	}
	if strings.TrimSpace(w.title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// wishlistJSON is the wire shape of a [WishlistItem].
type wishlistJSON struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DiscogsReleaseID int       `json:"discogs_release_id"`
	Title            string    `json:"title"`
	Artist           string    `json:"artist"`
	Year             *int      `json:"year"`
	CoverImage       *string   `json:"cover_image"`
	Thumb            *string   `json:"thumb"`
	Genres           []string  `json:"genres"`
	Labels           []string  `json:"labels"`
	Notes            *string   `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON renders the item with nulls for absent optional fields.
func (w *WishlistItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(wishlistJSON{
		ID:               w.id,
		UserID:           w.userID,
		DiscogsReleaseID: w.releaseID,
		Title:            w.title,
		Artist:           w.artist,
		Year:             w.year,
		CoverImage:       optional(w.coverURL),
		Thumb:            optional(w.thumbURL),
		Genres:           w.genres,
		Labels:           w.labels,
		Notes:            optional(w.notes),
		CreatedAt:        w.createdAt,
	})
}

// WishlistInput is the request body for adding a wishlist entry.
type WishlistInput struct {
	DiscogsReleaseID int      `json:"discogs_release_id"`
	Title            string   `json:"title"`
	Artist           string   `json:"artist"`
	Year             *int     `json:"year,omitempty"`
	CoverImage       string   `json:"cover_image,omitempty"`
	Thumb            string   `json:"thumb,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	Labels           []string `json:"labels,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// Item builds a [WishlistItem] owned by userID from the input.
func (in WishlistInput) Item(userID string) *WishlistItem {
	item := NewWishlistItem(userID, in.DiscogsReleaseID, in.Title, in.Artist)
	item.SetYear(in.Year)
	item.SetImages(in.CoverImage, in.Thumb)
	item.SetGenres(in.Genres)
	item.SetLabels(in.Labels)
	item.SetNotes(in.Notes)
	return item
}

// PriceAlert is a target price on a wishlist item.
type PriceAlert struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	WishlistID       string     `json:"wishlist_id"`
	DiscogsReleaseID int        `json:"discogs_release_id"`
	TargetPrice      float64    `json:"target_price"`
	LastMinPrice     *float64   `json:"last_min_price"`
	Currency         string     `json:"currency"`
	LastCheckedAt    *time.Time `json:"last_checked_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Triggered reports whether the last observed minimum is at or below the target.
func (a *PriceAlert) Triggered() bool {
	return a.LastMinPrice != nil && *a.LastMinPrice <= a.TargetPrice
}
