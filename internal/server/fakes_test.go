package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
)

const (
	testToken  = "tok-123"
	otherToken = "tok-456"
)

type fakeUsers struct {
	user  *models.User
	other *models.User
}

func (f *fakeUsers) GetByToken(token string) (*models.User, error) {
	switch token {
	case testToken:
		return f.user, nil
	case otherToken:
		return f.other, nil
	}
	return nil, shared.ErrNotAuthenticated
}

type fakeHandshake struct {
	mu        sync.Mutex
	begins    []string
	owners    []string
	callbacks []services.Callback
	tmp       *models.TemporaryCredential
	cred      *models.AccessCredential
	beginErr  error
	err       error
}

func (f *fakeHandshake) Begin(_ context.Context, owner, callbackURL string) (*models.TemporaryCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begins = append(f.begins, callbackURL)
	f.owners = append(f.owners, owner)
	return f.tmp, f.beginErr
}

func (f *fakeHandshake) Complete(_ context.Context, owner string, cb services.Callback) (*models.AccessCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners = append(f.owners, owner)
	f.callbacks = append(f.callbacks, cb)
	if cb.Denied {
		return nil, shared.ErrAuthorizationDenied
	}
	return f.cred, f.err
}

type fakeReleases struct {
	searches  []models.SearchQuery
	page      *models.SearchPage
	detail    *models.ReleaseDetail
	searchErr error
	err       error
}

func (f *fakeReleases) Search(_ context.Context, q models.SearchQuery) (*models.SearchPage, error) {
	f.searches = append(f.searches, q)
	return f.page, f.searchErr
}

func (f *fakeReleases) Release(_ context.Context, id int) (*models.ReleaseDetail, error) {
	return f.detail, f.err
}

type fakeProfiles struct {
	profiles     map[string]*models.Profile
	saved        map[string]models.AccessCredential
	disconnected []string
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[string]*models.Profile{}, saved: map[string]models.AccessCredential{}}
}

func (f *fakeProfiles) Get(userID string) (*models.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return &models.Profile{UserID: userID}, nil
}

func (f *fakeProfiles) SaveCredential(userID string, cred models.AccessCredential) error {
	f.saved[userID] = cred
	return nil
}

func (f *fakeProfiles) Disconnect(userID string) error {
	f.disconnected = append(f.disconnected, userID)
	return nil
}

type fakeWishlist struct {
	items   []*models.WishlistItem
	deleted []string
}

func (f *fakeWishlist) Create(item *models.WishlistItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	for _, existing := range f.items {
		if existing.UserID() == item.UserID() && existing.ReleaseID() == item.ReleaseID() {
			return shared.ErrAlreadyInWishlist
		}
	}
	item.SetID(fmt.Sprintf("w%d", len(f.items)+1))
	f.items = append(f.items, item)
	return nil
}

func (f *fakeWishlist) ListByUser(userID string) ([]*models.WishlistItem, error) {
	var out []*models.WishlistItem
	for _, item := range f.items {
		if item.UserID() == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeWishlist) Delete(userID, id string) error {
	for _, item := range f.items {
		if item.UserID() == userID && item.ID() == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return shared.ErrWishlistNotFound
}

type fakeAlerts struct {
	alerts  []*models.PriceAlert
	deleted []string
}

func (f *fakeAlerts) ListByUser(string) ([]*models.PriceAlert, error) { return f.alerts, nil }

func (f *fakeAlerts) Delete(_, wishlistID string) error {
	f.deleted = append(f.deleted, wishlistID)
	return nil
}

type fakeCollection struct {
	opts   []services.CollectionOptions
	result *models.CollectionResult
	err    error
}

func (f *fakeCollection) FetchPage(_ context.Context, _ string, opts services.CollectionOptions) (*models.CollectionResult, error) {
	f.opts = append(f.opts, opts)
	return f.result, f.err
}

type fakePrices struct {
	check *models.PriceCheck
	alert *models.PriceAlert
	err   error
}

func (f *fakePrices) Check(_ context.Context, _ string, releaseID int) (*models.PriceCheck, error) {
	if releaseID <= 0 {
		return nil, shared.ErrInvalidInput
	}
	return f.check, f.err
}

func (f *fakePrices) SetAlert(_ context.Context, _, wishlistID string, target float64) (*models.PriceAlert, error) {
	if f.err != nil {
		return nil, f.err
	}
	alert := *f.alert
	alert.WishlistID = wishlistID
	alert.TargetPrice = target
	return &alert, nil
}

type fakeAnalyzer struct {
	kinds    []tasks.AnalysisType
	received int
	text     string
	err      error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, releases []models.CollectionRelease, kind tasks.AnalysisType, _ chan<- tasks.ProgressUpdate) (string, error) {
	f.kinds = append(f.kinds, kind)
	f.received = len(releases)
	return f.text, f.err
}

type relayFixture struct {
	router     *BasicRouter
	user       *models.User
	other      *models.User
	handshake  *fakeHandshake
	releases   *fakeReleases
	profiles   *fakeProfiles
	wishlist   *fakeWishlist
	alerts     *fakeAlerts
	collection *fakeCollection
	prices     *fakePrices
	analyzer   *fakeAnalyzer
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	return newRelayFixtureWith(t, nil)
}

// newRelayFixtureWith uses flow for the handshake routes, or the fake when flow is nil.
func newRelayFixtureWith(t *testing.T, flow HandshakeFlow) *relayFixture {
	t.Helper()

	user := models.NewUser(1, "fan@example.com", "Fan")
	user.SetID("user-1")
	other := models.NewUser(2, "rival@example.com", "Rival")
	other.SetID("user-2")

	f := &relayFixture{
		router:     NewBasicRouter(),
		user:       user,
		other:      other,
		handshake:  &fakeHandshake{},
		releases:   &fakeReleases{},
		profiles:   newFakeProfiles(),
		wishlist:   &fakeWishlist{},
		alerts:     &fakeAlerts{},
		collection: &fakeCollection{},
		prices:     &fakePrices{},
		analyzer:   &fakeAnalyzer{},
	}

	if flow == nil {
		flow = f.handshake
	}

	relay := NewRelay(RelayDeps{
		Users:       &fakeUsers{user: user, other: other},
		Handshake:   flow,
		Releases:    f.releases,
		Profiles:    f.profiles,
		Wishlist:    f.wishlist,
		Alerts:      f.alerts,
		Collection:  f.collection,
		Prices:      f.prices,
		Analyzer:    f.analyzer,
		CallbackURL: "http://localhost:8080/callback",
	})
	f.router.Use(CORS())
	relay.Register(f.router)
	return f
}

// do sends a request as the fixture user with an optional JSON body.
func (f *relayFixture) do(method, path, body string) *httptest.ResponseRecorder {
	return f.doAs(testToken, method, path, body)
}

func (f *relayFixture) doAs(token, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }
