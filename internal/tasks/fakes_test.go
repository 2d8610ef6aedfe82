package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
)

func strPtr(s string) *string { return &s }

func connectedProfile(userID string) *models.Profile {
	return &models.Profile{
		UserID:           userID,
		DiscogsUsername:  strPtr("vinylfan"),
		OAuthToken:       strPtr("at"),
		OAuthTokenSecret: strPtr("as"),
	}
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
}

func (f *fakeProfiles) Get(userID string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return &models.Profile{UserID: userID}, nil
}

type fakeDiscogs struct {
	mu sync.Mutex

	pages    map[int]*models.CollectionPage
	pageErrs map[int]error
	value    *models.CollectionValue
	valueErr error
	pageCall []int

	suggestions    map[int]*models.Price
	suggestionErr  error
	suggestionAuth []services.Authorizer
	listings       map[int]*models.ListingsPage
	listingsErrs   map[int]error
}

func (f *fakeDiscogs) Collection(ctx context.Context, cred models.AccessCredential, opts services.CollectionOptions) (*models.CollectionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageCall = append(f.pageCall, opts.Page)
	if err := f.pageErrs[opts.Page]; err != nil {
		return nil, err
	}
	if p, ok := f.pages[opts.Page]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no page %d", shared.ErrUpstream, opts.Page)
}

func (f *fakeDiscogs) CollectionValue(ctx context.Context, cred models.AccessCredential) (*models.CollectionValue, error) {
	return f.value, f.valueErr
}

func (f *fakeDiscogs) PriceSuggestion(ctx context.Context, auth services.Authorizer, releaseID int) (*models.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.suggestionAuth = append(f.suggestionAuth, auth)
	if f.suggestionErr != nil {
		return nil, f.suggestionErr
	}
	return f.suggestions[releaseID], nil
}

func (f *fakeDiscogs) Listings(ctx context.Context, releaseID int, perPage int) (*models.ListingsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.listingsErrs[releaseID]; err != nil {
		return nil, err
	}
	if l, ok := f.listings[releaseID]; ok {
		return l, nil
	}
	return &models.ListingsPage{}, nil
}

func (f *fakeDiscogs) pagesRequested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pageCall...)
}

type fakeWishlist struct {
	items []*models.WishlistItem
	err   error
}

func (f *fakeWishlist) GetForUser(userID, id string) (*models.WishlistItem, error) {
	for _, item := range f.items {
		if item.ID() == id && item.UserID() == userID {
			return item, nil
		}
	}
	return nil, shared.ErrWishlistNotFound
}

func (f *fakeWishlist) ListByUser(userID string) ([]*models.WishlistItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.WishlistItem
	for _, item := range f.items {
		if item.UserID() == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeAlerts struct {
	mu      sync.Mutex
	alerts  map[string]*models.PriceAlert
	upserts int
	err     error
}

func (f *fakeAlerts) Upsert(alert *models.PriceAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.alerts == nil {
		f.alerts = make(map[string]*models.PriceAlert)
	}
	f.upserts++
	stored := *alert
	f.alerts[alert.WishlistID] = &stored
	return nil
}

func (f *fakeAlerts) ListByUser(userID string) ([]*models.PriceAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.PriceAlert
	for _, a := range f.alerts {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeCompleter struct {
	system, user string
	out          string
	err          error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.out, f.err
}

func release(id int, title, artist string, formats ...string) models.CollectionRelease {
	fs := make([]models.Format, 0, len(formats))
	for _, name := range formats {
		fs = append(fs, models.Format{Name: name})
	}
	return models.CollectionRelease{
		ID: id,
		BasicInformation: models.BasicInformation{
			ID:      id,
			Title:   title,
			Year:    1990 + id,
			Formats: fs,
			Artists: []models.Artist{{Name: artist}},
			Genres:  []string{"Rock"},
		},
	}
}

func page(n, pages int, releases ...models.CollectionRelease) *models.CollectionPage {
	return &models.CollectionPage{
		Pagination: models.Pagination{Page: n, Pages: pages, PerPage: 100, Items: pages * 2},
		Releases:   releases,
	}
}

func listing(value float64, format string) models.Listing {
	l := models.Listing{Price: models.Price{Value: value, Currency: "USD"}, Condition: "Mint (M)"}
	l.Release.Format = format
	return l
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var out []ProgressUpdate
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}
