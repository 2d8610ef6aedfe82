package models

import "time"

// LibraryExport is a snapshot of a user's CD collection and wishlist written by an export run.
type LibraryExport struct {
	DiscogsUsername string              `json:"discogs_username"`
	ExportedAt      time.Time           `json:"exported_at"`
	Value           *CollectionValue    `json:"value,omitempty"`
	Releases        []CollectionRelease `json:"releases"`
	Wishlist        []*WishlistItem     `json:"wishlist"`
}

// ExportManifest summarizes the files produced by an export run.
type ExportManifest struct {
	Format          string    `json:"format"`
	DiscogsUsername string    `json:"discogs_username"`
	CreatedAt       time.Time `json:"created_at"`
	Releases        int       `json:"releases"`
	WishlistItems   int       `json:"wishlist_items"`
	Files           []string  `json:"files"`
}
