package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
)

// minSearchLength is the shortest query forwarded to the database search.
const minSearchLength = 2

// ReleaseSource answers catalog lookups that need no user credential.
type ReleaseSource interface {
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchPage, error)
	Release(ctx context.Context, releaseID int) (*models.ReleaseDetail, error)
}

// ProfileStore persists each user's Discogs connection.
type ProfileStore interface {
	Get(userID string) (*models.Profile, error)
	SaveCredential(userID string, cred models.AccessCredential) error
	Disconnect(userID string) error
}

type WishlistStore interface {
	Create(item *models.WishlistItem) error
	ListByUser(userID string) ([]*models.WishlistItem, error)
	Delete(userID, id string) error
}

type AlertStore interface {
	ListByUser(userID string) ([]*models.PriceAlert, error)
	Delete(userID, wishlistID string) error
}

type CollectionFetcher interface {
	FetchPage(ctx context.Context, userID string, opts services.CollectionOptions) (*models.CollectionResult, error)
}

type PriceChecker interface {
	Check(ctx context.Context, userID string, releaseID int) (*models.PriceCheck, error)
	SetAlert(ctx context.Context, userID, wishlistID string, targetPrice float64) (*models.PriceAlert, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, releases []models.CollectionRelease, kind tasks.AnalysisType, progress chan<- tasks.ProgressUpdate) (string, error)
}

// RelayDeps collects the collaborators of a [Relay].
type RelayDeps struct {
	Users       UserResolver
	Handshake   HandshakeFlow
	Releases    ReleaseSource
	Profiles    ProfileStore
	Wishlist    WishlistStore
	Alerts      AlertStore
	Collection  CollectionFetcher
	Prices      PriceChecker
	Analyzer    Analyzer
	CallbackURL string
	Logger      *log.Logger
}

// Relay serves the JSON API that browser clients use instead of calling Discogs and the AI gateway directly.
type Relay struct {
	RelayDeps
}

func NewRelay(deps RelayDeps) *Relay {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	return &Relay{RelayDeps: deps}
}

// Register adds every relay route to r. All /api routes require a bearer token.
func (s *Relay) Register(r Router) {
	auth := RequireUser(s.Users)
	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodPost, "/api/discogs/connect", s.connect},
		{http.MethodGet, "/api/discogs/callback", s.callback},
		{http.MethodDelete, "/api/discogs/connection", s.disconnect},
		{http.MethodGet, "/api/discogs/status", s.status},
		{http.MethodPost, "/api/discogs/collection", s.collection},
		{http.MethodPost, "/api/discogs/search", s.search},
		{http.MethodPost, "/api/discogs/release", s.release},
		{http.MethodPost, "/api/discogs/price", s.price},
		{http.MethodGet, "/api/wishlist", s.listWishlist},
		{http.MethodPost, "/api/wishlist", s.addWishlist},
		{http.MethodDelete, "/api/wishlist/{id}", s.removeWishlist},
		{http.MethodGet, "/api/alerts", s.listAlerts},
		{http.MethodDelete, "/api/alerts/{wishlist_id}", s.removeAlert},
		{http.MethodPost, "/api/analyze", s.analyze},
	}

	for _, route := range routes {
		r.Handle(route.method, route.path, auth(route.handler))
	}
}

// currentUser is only called behind [RequireUser].
func currentUser(r *http.Request) *models.User {
	user, _ := UserFrom(r.Context())
	return user
}

// fail writes err with its mapped status, logging server-side failures.
func (s *Relay) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

type connectRequest struct {
	CallbackURL string `json:"callback_url"`
}

type connectResponse struct {
	OAuthToken   string `json:"oauth_token"`
	AuthorizeURL string `json:"authorize_url"`
}

func (s *Relay) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = s.CallbackURL
	}
	if callbackURL == "" {
		writeError(w, http.StatusBadRequest, "callback_url is required")
		return
	}

	tmp, err := s.Handshake.Begin(r.Context(), currentUser(r).ID(), callbackURL)
	if err != nil {
		s.Logger.Error("request token failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, connectResponse{OAuthToken: tmp.Token, AuthorizeURL: tmp.AuthorizeURL})
}

type callbackResponse struct {
	Success         bool   `json:"success,omitempty"`
	Denied          bool   `json:"denied,omitempty"`
	Message         string `json:"message,omitempty"`
	DiscogsUsername string `json:"discogs_username,omitempty"`
}

func (s *Relay) callback(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	cred, err := s.Handshake.Complete(r.Context(), user.ID(), services.ParseCallback(r.URL.Query()))
	if errors.Is(err, shared.ErrAuthorizationDenied) {
		writeJSON(w, http.StatusOK, callbackResponse{Denied: true, Message: "Authorization was denied on Discogs."})
		return
	}
	if err != nil {
		s.Logger.Warn("handshake failed", "user_id", user.ID(), "error", err)
		s.fail(w, r, err)
		return
	}

	if err := s.Profiles.SaveCredential(user.ID(), *cred); err != nil {
		s.fail(w, r, err)
		return
	}

	s.Logger.Info("discogs connected", "user_id", user.ID(), "username", cred.Username)
	writeJSON(w, http.StatusOK, callbackResponse{Success: true, DiscogsUsername: cred.Username})
}

func (s *Relay) disconnect(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := s.Profiles.Disconnect(user.ID()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type statusResponse struct {
	Connected       bool    `json:"connected"`
	DiscogsUsername *string `json:"discogs_username"`
}

func (s *Relay) status(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Profiles.Get(currentUser(r).ID())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := statusResponse{Connected: profile.Connected()}
	if resp.Connected {
		resp.DiscogsUsername = profile.DiscogsUsername
	}
	writeJSON(w, http.StatusOK, resp)
}

type collectionError struct {
	Error    string                     `json:"error"`
	Releases []models.CollectionRelease `json:"releases"`
}

type collectionRequest struct {
	Page      int    `json:"page"`
	PerPage   int    `json:"per_page"`
	Sort      string `json:"sort"`
	SortOrder string `json:"sort_order"`
}

func (s *Relay) collection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	opts := services.CollectionOptions{Page: req.Page, PerPage: req.PerPage, Sort: req.Sort, SortOrder: req.SortOrder}
	result, err := s.Collection.FetchPage(r.Context(), currentUser(r).ID(), opts)
	switch {
	case errors.Is(err, shared.ErrNotConnected):
		writeNeedsAuth(w, "Discogs not connected")
	case err != nil:
		s.Logger.Error("collection fetch failed", "error", err)
		writeJSON(w, statusFor(err), collectionError{Error: err.Error(), Releases: []models.CollectionRelease{}})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Relay) search(w http.ResponseWriter, r *http.Request) {
	var q models.SearchQuery
	if err := decodeJSON(w, r, &q); err != nil {
		s.fail(w, r, err)
		return
	}

	q.Query = strings.TrimSpace(q.Query)
	if len([]rune(q.Query)) < minSearchLength {
		writeJSON(w, http.StatusOK, models.SearchPage{Results: []models.SearchResult{}})
		return
	}

	page, err := s.Releases.Search(r.Context(), q)
	if err != nil {
		s.Logger.Error("search failed", "query", q.Query, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type releaseRequest struct {
	ReleaseID int `json:"release_id"`
}

func (s *Relay) release(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ReleaseID <= 0 {
		writeError(w, http.StatusBadRequest, "release_id is required")
		return
	}

	detail, err := s.Releases.Release(r.Context(), req.ReleaseID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

const actionSetAlert = "set_alert"

type priceRequest struct {
	ReleaseID   int     `json:"release_id"`
	Action      string  `json:"action"`
	WishlistID  string  `json:"wishlist_id"`
	TargetPrice float64 `json:"target_price"`
}

type alertResponse struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	CurrentMinPrice *float64 `json:"current_min_price"`
	TargetPrice     float64  `json:"target_price"`
}

func (s *Relay) price(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	userID := currentUser(r).ID()

	if req.Action == actionSetAlert {
		alert, err := s.Prices.SetAlert(r.Context(), userID, req.WishlistID, req.TargetPrice)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, alertResponse{
			Success:         true,
			Message:         "Price alert set successfully",
			CurrentMinPrice: alert.LastMinPrice,
			TargetPrice:     alert.TargetPrice,
		})
		return
	}

	check, err := s.Prices.Check(r.Context(), userID, req.ReleaseID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

type wishlistResponse struct {
	Items []*models.WishlistItem `json:"items"`
}

func (s *Relay) listWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.Wishlist.ListByUser(currentUser(r).ID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.WishlistItem{}
	}
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items})
}

func (s *Relay) addWishlist(w http.ResponseWriter, r *http.Request) {
	var in models.WishlistInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	item := in.Item(currentUser(r).ID())
	if err := s.Wishlist.Create(item); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Relay) removeWishlist(w http.ResponseWriter, r *http.Request) {
	if err := s.Wishlist.Delete(currentUser(r).ID(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type alertsResponse struct {
	Alerts []*models.PriceAlert `json:"alerts"`
}

func (s *Relay) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.Alerts.ListByUser(currentUser(r).ID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []*models.PriceAlert{}
	}
	writeJSON(w, http.StatusOK, alertsResponse{Alerts: alerts})
}

func (s *Relay) removeAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.Alerts.Delete(currentUser(r).ID(), chi.URLParam(r, "wishlist_id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type analyzeRequest struct {
	Collection   []models.CollectionRelease `json:"collection"`
	AnalysisType string                     `json:"analysis_type"`
	LegacyType   string                     `json:"analysisType"`
}

// kind prefers analysis_type, then analysisType, then overview.
func (req analyzeRequest) kind() string {
	switch {
	case req.AnalysisType != "":
		return req.AnalysisType
	case req.LegacyType != "":
		return req.LegacyType
	default:
		return string(tasks.AnalysisOverview)
	}
}

func (s *Relay) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	kind, err := tasks.ParseAnalysisType(req.kind())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	analysis, err := s.Analyzer.Analyze(r.Context(), req.Collection, kind, nil)
	switch {
	case errors.Is(err, shared.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	case errors.Is(err, shared.ErrQuotaExhausted):
		writeError(w, http.StatusPaymentRequired, "AI credits exhausted. Please try again later.")
	case err != nil:
		s.fail(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
	}
}
