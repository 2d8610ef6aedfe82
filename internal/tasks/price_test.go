package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
)

func wishItem(id, userID string, releaseID int) *models.WishlistItem {
	item := models.NewWishlistItem(userID, releaseID, "Title", "Artist")
	item.SetID(id)
	return item
}

func newPriceEngine(discogs *fakeDiscogs, wishlist *fakeWishlist, alerts *fakeAlerts) *PriceEngine {
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{"u1": connectedProfile("u1")}}
	return NewPriceEngine(discogs, profiles, wishlist, alerts, nil)
}

func TestPriceEngine_Check(t *testing.T) {
	t.Run("combines suggestion and listings", func(t *testing.T) {
		discogs := &fakeDiscogs{
			suggestions: map[int]*models.Price{7: {Value: 11.5, Currency: "EUR"}},
			listings: map[int]*models.ListingsPage{7: {
				Pagination: models.Pagination{Items: 14},
				Listings: []models.Listing{
					listing(3.00, "LP, Album"),
					listing(4.50, "CD, Album"),
					listing(6.00, "CD"),
					listing(9.00, "CD"),
				},
			}},
		}
		e := newPriceEngine(discogs, nil, nil)

		got, err := e.Check(context.Background(), "u1", 7)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}

		minPrice, suggested := 4.50, 11.5
		want := &models.PriceCheck{
			ReleaseID:      7,
			MinPrice:       &minPrice,
			ForSaleCount:   14,
			SuggestedPrice: &suggested,
			Currency:       "EUR",
			Listings: []models.ListingSummary{
				{Price: 3.00, Currency: "USD", Condition: "Mint (M)"},
				{Price: 4.50, Currency: "USD", Condition: "Mint (M)"},
				{Price: 6.00, Currency: "USD", Condition: "Mint (M)"},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Check() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("falls back to first listing without CD", func(t *testing.T) {
		discogs := &fakeDiscogs{listings: map[int]*models.ListingsPage{7: {
			Listings: []models.Listing{listing(2.25, ""), listing(5.00, "")},
		}}}
		e := newPriceEngine(discogs, nil, nil)

		got, err := e.Check(context.Background(), "u1", 7)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if got.MinPrice == nil || *got.MinPrice != 2.25 {
			t.Errorf("unexpected min price %v", got.MinPrice)
		}
		if got.Currency != "USD" {
			t.Errorf("expected default currency, got %q", got.Currency)
		}
	})

	t.Run("both sides failing degrade to empty", func(t *testing.T) {
		discogs := &fakeDiscogs{
			suggestionErr: shared.ErrUpstream,
			listingsErrs:  map[int]error{7: shared.ErrUpstream},
		}
		e := newPriceEngine(discogs, nil, nil)

		got, err := e.Check(context.Background(), "u1", 7)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if got.MinPrice != nil || got.SuggestedPrice != nil || got.ForSaleCount != 0 {
			t.Errorf("expected empty check, got %+v", got)
		}
		if got.Listings == nil || len(got.Listings) != 0 {
			t.Errorf("expected empty listings, got %v", got.Listings)
		}
	})

	t.Run("authorization mode", func(t *testing.T) {
		discogs := &fakeDiscogs{}
		e := newPriceEngine(discogs, nil, nil)

		if _, err := e.Check(context.Background(), "u1", 7); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Check(context.Background(), "stranger", 7); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Check(context.Background(), "", 7); err != nil {
			t.Fatal(err)
		}

		if _, ok := discogs.suggestionAuth[0].(services.OAuthAuth); !ok {
			t.Errorf("connected user should sign, got %T", discogs.suggestionAuth[0])
		}
		for _, a := range discogs.suggestionAuth[1:] {
			if _, ok := a.(services.KeyAuth); !ok {
				t.Errorf("expected key auth, got %T", a)
			}
		}
	})

	t.Run("invalid release", func(t *testing.T) {
		e := newPriceEngine(&fakeDiscogs{}, nil, nil)

		if _, err := e.Check(context.Background(), "u1", 0); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPriceEngine_SetAlert(t *testing.T) {
	discogs := &fakeDiscogs{listings: map[int]*models.ListingsPage{
		42: {Listings: []models.Listing{listing(8.0, "CD")}},
	}}
	wishlist := &fakeWishlist{items: []*models.WishlistItem{wishItem("w1", "u1", 42), wishItem("w2", "u2", 43)}}

	t.Run("records baseline", func(t *testing.T) {
		alerts := &fakeAlerts{}
		e := newPriceEngine(discogs, wishlist, alerts)

		alert, err := e.SetAlert(context.Background(), "u1", "w1", 10)
		if err != nil {
			t.Fatalf("SetAlert failed: %v", err)
		}
		if alert.DiscogsReleaseID != 42 || alert.WishlistID != "w1" {
			t.Errorf("unexpected alert %+v", alert)
		}
		if alert.LastMinPrice == nil || *alert.LastMinPrice != 8.0 {
			t.Errorf("unexpected last min price %v", alert.LastMinPrice)
		}
		if alert.LastCheckedAt == nil {
			t.Error("expected last checked time")
		}
		if !alert.Triggered() {
			t.Error("alert below target should be triggered")
		}
		if alerts.upserts != 1 {
			t.Errorf("expected one upsert, got %d", alerts.upserts)
		}
	})

	t.Run("other user's item", func(t *testing.T) {
		alerts := &fakeAlerts{}
		e := newPriceEngine(discogs, wishlist, alerts)

		_, err := e.SetAlert(context.Background(), "u1", "w2", 10)
		if !errors.Is(err, shared.ErrWishlistNotFound) {
			t.Fatalf("expected ErrWishlistNotFound, got %v", err)
		}
		if alerts.upserts != 0 {
			t.Error("no alert should be stored")
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		e := newPriceEngine(discogs, wishlist, &fakeAlerts{})

		for _, tc := range []struct {
			wishlistID string
			target     float64
		}{{"", 10}, {"w1", 0}, {"w1", -5}} {
			if _, err := e.SetAlert(context.Background(), "u1", tc.wishlistID, tc.target); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("SetAlert(%q, %v): expected ErrInvalidInput, got %v", tc.wishlistID, tc.target, err)
			}
		}
	})

	t.Run("store failure", func(t *testing.T) {
		e := newPriceEngine(discogs, wishlist, &fakeAlerts{err: errors.New("disk full")})

		if _, err := e.SetAlert(context.Background(), "u1", "w1", 10); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPriceEngine_RefreshAlerts(t *testing.T) {
	seed := func() *fakeAlerts {
		old := 20.0
		return &fakeAlerts{alerts: map[string]*models.PriceAlert{
			"w1": {UserID: "u1", WishlistID: "w1", DiscogsReleaseID: 1, TargetPrice: 10, LastMinPrice: &old},
			"w2": {UserID: "u1", WishlistID: "w2", DiscogsReleaseID: 2, TargetPrice: 10, LastMinPrice: &old},
			"w3": {UserID: "u1", WishlistID: "w3", DiscogsReleaseID: 3, TargetPrice: 10, LastMinPrice: &old},
			"w4": {UserID: "u2", WishlistID: "w4", DiscogsReleaseID: 4, TargetPrice: 10},
		}}
	}

	discogs := &fakeDiscogs{
		listings: map[int]*models.ListingsPage{
			1: {Listings: []models.Listing{listing(9.0, "CD")}},
			2: {Listings: []models.Listing{listing(15.0, "CD")}},
		},
		listingsErrs: map[int]error{3: shared.ErrUpstream},
	}

	t.Run("updates minimum prices", func(t *testing.T) {
		alerts := seed()
		e := newPriceEngine(discogs, nil, alerts)
		progress := make(chan ProgressUpdate, 10)

		summary, err := e.RefreshAlerts(context.Background(), "u1", AlertRefreshOpts{NumWorkers: 2, RateLimit: 1000}, progress)
		if err != nil {
			t.Fatalf("RefreshAlerts failed: %v", err)
		}

		if summary.Total != 3 || summary.Checked != 2 || summary.Failed != 1 || summary.Triggered != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if got := *alerts.alerts["w1"].LastMinPrice; got != 9.0 {
			t.Errorf("w1 min price = %v, want 9", got)
		}
		if got := *alerts.alerts["w3"].LastMinPrice; got != 20.0 {
			t.Errorf("failed refresh must keep previous minimum, got %v", got)
		}
		if alerts.alerts["w4"].LastCheckedAt != nil {
			t.Error("other users' alerts must not be touched")
		}
		if n := len(drain(progress)); n != 3 {
			t.Errorf("expected 3 progress updates, got %d", n)
		}
	})

	t.Run("no alerts", func(t *testing.T) {
		e := newPriceEngine(discogs, nil, &fakeAlerts{})

		summary, err := e.RefreshAlerts(context.Background(), "u1", AlertRefreshOpts{}, nil)
		if err != nil {
			t.Fatalf("RefreshAlerts failed: %v", err)
		}
		if summary.Total != 0 || len(summary.Results) != 0 {
			t.Errorf("unexpected summary %+v", summary)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := newPriceEngine(discogs, nil, seed())
		summary, err := e.RefreshAlerts(ctx, "u1", AlertRefreshOpts{}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if summary.Failed != 3 {
			t.Errorf("expected every alert to fail, got %+v", summary)
		}
	})
}
