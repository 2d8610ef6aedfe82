package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
)

const (
	defaultCurrency = "USD"
	listingsPerPage = 5
	listingsShown   = 3
)

// PriceEngine checks marketplace prices and maintains price alerts.
type PriceEngine struct {
	market   MarketSource
	profiles ProfileStore
	wishlist WishlistStore
	alerts   AlertStore
	logger   *log.Logger
	now      func() time.Time
}

func NewPriceEngine(market MarketSource, profiles ProfileStore, wishlist WishlistStore, alerts AlertStore, logger *log.Logger) *PriceEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PriceEngine{
		market:   market,
		profiles: profiles,
		wishlist: wishlist,
		alerts:   alerts,
		logger:   logger,
		now:      time.Now,
	}
}

// authFor signs with userID's credential when connected and falls back to key authorization.
func (e *PriceEngine) authFor(userID string) services.Authorizer {
	if userID == "" || e.profiles == nil {
		return services.KeyAuth{}
	}

	cred, err := credentialFor(e.profiles, userID)
	if err != nil {
		return services.KeyAuth{}
	}
	return services.OAuthAuth{Credential: cred}
}

// Check returns the suggested price and cheapest CD listings for releaseID.
//
// Both lookups run concurrently. Either failing leaves its half of the result empty.
func (e *PriceEngine) Check(ctx context.Context, userID string, releaseID int) (*models.PriceCheck, error) {
	check, _, err := e.check(ctx, userID, releaseID)
	return check, err
}

// check is [PriceEngine.Check] that also reports whether listings were fetched, since the minimum price depends on them.
func (e *PriceEngine) check(ctx context.Context, userID string, releaseID int) (*models.PriceCheck, bool, error) {
	if releaseID <= 0 {
		return nil, false, fmt.Errorf("%w: release id required", shared.ErrInvalidInput)
	}

	var (
		suggestion *models.Price
		listings   *models.ListingsPage
		g          errgroup.Group
	)

	g.Go(func() error {
		s, err := e.market.PriceSuggestion(ctx, e.authFor(userID), releaseID)
		if err != nil {
			e.logger.Warn("price suggestion unavailable", "release_id", releaseID, "error", err)
			return nil
		}
		suggestion = s
		return nil
	})

	g.Go(func() error {
		l, err := e.market.Listings(ctx, releaseID, listingsPerPage)
		if err != nil {
			e.logger.Warn("listings unavailable", "release_id", releaseID, "error", err)
			return nil
		}
		listings = l
		return nil
	})

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return buildPriceCheck(releaseID, suggestion, listings), listings != nil, nil
}

func buildPriceCheck(releaseID int, suggestion *models.Price, listings *models.ListingsPage) *models.PriceCheck {
	check := &models.PriceCheck{
		ReleaseID: releaseID,
		Currency:  defaultCurrency,
		Listings:  []models.ListingSummary{},
	}

	if suggestion != nil {
		value := suggestion.Value
		check.SuggestedPrice = &value
		if suggestion.Currency != "" {
			check.Currency = suggestion.Currency
		}
	}

	if listings == nil {
		return check
	}

	check.ForSaleCount = listings.Pagination.Items
	if cheapest := cheapestCD(listings.Listings); cheapest != nil {
		value := cheapest.Price.Value
		check.MinPrice = &value
	}

	for i, l := range listings.Listings {
		if i == listingsShown {
			break
		}
		check.Listings = append(check.Listings, models.ListingSummary{
			Price:           l.Price.Value,
			Currency:        l.Price.Currency,
			Condition:       l.Condition,
			SleeveCondition: l.SleeveCondition,
			ShipsFrom:       l.ShipsFrom,
		})
	}
	return check
}

// cheapestCD picks the first listing whose release format mentions a CD, else the first listing.
// Listings arrive sorted by ascending price.
func cheapestCD(listings []models.Listing) *models.Listing {
	if len(listings) == 0 {
		return nil
	}
	for i := range listings {
		if strings.Contains(strings.ToLower(listings[i].Release.Format), "cd") {
			return &listings[i]
		}
	}
	return &listings[0]
}

// SetAlert records targetPrice on one of userID's wishlist items, with the current minimum as a baseline.
func (e *PriceEngine) SetAlert(ctx context.Context, userID, wishlistID string, targetPrice float64) (*models.PriceAlert, error) {
	if wishlistID == "" {
		return nil, fmt.Errorf("%w: wishlist id required", shared.ErrInvalidInput)
	}
	if targetPrice <= 0 {
		return nil, fmt.Errorf("%w: target price must be positive", shared.ErrInvalidInput)
	}

	item, err := e.wishlist.GetForUser(userID, wishlistID)
	if err != nil {
		return nil, err
	}

	check, err := e.Check(ctx, userID, item.ReleaseID())
	if err != nil {
		return nil, err
	}

	checkedAt := e.now()
	alert := &models.PriceAlert{
		UserID:           userID,
		WishlistID:       item.ID(),
		DiscogsReleaseID: item.ReleaseID(),
		TargetPrice:      targetPrice,
		LastMinPrice:     check.MinPrice,
		Currency:         check.Currency,
		LastCheckedAt:    &checkedAt,
	}
	if err := e.alerts.Upsert(alert); err != nil {
		return nil, err
	}
	return alert, nil
}
