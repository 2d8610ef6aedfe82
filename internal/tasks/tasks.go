package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
)

// ProfileStore reads a user's Discogs connection.
type ProfileStore interface {
	Get(userID string) (*models.Profile, error)
}

// CollectionSource is the part of the Discogs client that reads collections.
type CollectionSource interface {
	Collection(ctx context.Context, cred models.AccessCredential, opts services.CollectionOptions) (*models.CollectionPage, error)
	CollectionValue(ctx context.Context, cred models.AccessCredential) (*models.CollectionValue, error)
}

// MarketSource is the part of the Discogs client that reads marketplace data.
type MarketSource interface {
	PriceSuggestion(ctx context.Context, auth services.Authorizer, releaseID int) (*models.Price, error)
	Listings(ctx context.Context, releaseID int, perPage int) (*models.ListingsPage, error)
}

// WishlistStore reads wishlist entries.
type WishlistStore interface {
	GetForUser(userID, id string) (*models.WishlistItem, error)
	ListByUser(userID string) ([]*models.WishlistItem, error)
}

// AlertStore persists price alerts.
type AlertStore interface {
	Upsert(alert *models.PriceAlert) error
	ListByUser(userID string) ([]*models.PriceAlert, error)
}

// Completer produces a chat completion from a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// credentialFor returns the stored access credential of userID or [shared.ErrNotConnected].
func credentialFor(profiles ProfileStore, userID string) (models.AccessCredential, error) {
	profile, err := profiles.Get(userID)
	if err != nil {
		return models.AccessCredential{}, fmt.Errorf("failed to load profile: %w", err)
	}

	cred, ok := profile.Credential()
	if !ok {
		return models.AccessCredential{}, shared.ErrNotConnected
	}
	return cred, nil
}
