// Discogs API client: OAuth 1.0a handshake and signed or key-authorized reads.
//
// Endpoint reference: https://www.discogs.com/developers
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/oauth1"
	"github.com/desertthunder/cdx/internal/shared"
)

const (
	discogsBaseURL      = "https://api.discogs.com"
	discogsAuthorizeURL = "https://discogs.com/oauth/authorize"
	defaultUserAgent    = "JackpotMusicCDExplorer/1.0"
)

// DiscogsConfig is the immutable configuration of a [DiscogsClient].
type DiscogsConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	UserAgent      string
	BaseURL        string
	AuthorizeURL   string
	HTTPClient     *http.Client
	Logger         *log.Logger
}

// DiscogsClient talks to the Discogs API on behalf of one consumer application.
// It holds no per-user state and is safe for concurrent use.
type DiscogsClient struct {
	signer       *oauth1.Signer
	consumerKey  string
	consumerSec  string
	userAgent    string
	baseURL      string
	authorizeURL string
	httpClient   *http.Client
	logger       *log.Logger
}

// NewDiscogsClient validates cfg and returns a client. Missing consumer credentials fail with [shared.ErrMissingCredentials].
func NewDiscogsClient(cfg DiscogsConfig) (*DiscogsClient, error) {
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("%w: discogs consumer key and secret are required", shared.ErrMissingCredentials)
	}

	c := &DiscogsClient{
		signer:       oauth1.NewSigner(cfg.ConsumerKey, cfg.ConsumerSecret),
		consumerKey:  cfg.ConsumerKey,
		consumerSec:  cfg.ConsumerSecret,
		userAgent:    cfg.UserAgent,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		authorizeURL: cfg.AuthorizeURL,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger,
	}

	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.baseURL == "" {
		c.baseURL = discogsBaseURL
	}
	if c.authorizeURL == "" {
		c.authorizeURL = discogsAuthorizeURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	return c, nil
}

// Name returns the service name.
func (c *DiscogsClient) Name() string { return "Discogs" }

// Authorizer sets the Authorization header on a Discogs request.
type Authorizer interface {
	authorize(c *DiscogsClient, req *http.Request) error
}

// OAuthAuth signs requests with a user's access credential. Query parameters are part of the signature,
// so a URL that repeats a query key fails with [oauth1.ErrRepeatedParam] before anything is sent.
type OAuthAuth struct {
	Credential models.AccessCredential
}

func (a OAuthAuth) authorize(c *DiscogsClient, req *http.Request) error {
	base, query, err := oauth1.SplitURL(req.URL.String())
	if err != nil {
		return fmt.Errorf("failed to split url: %w", err)
	}

	cred := oauth1.Credentials{Token: a.Credential.Token, Secret: a.Credential.Secret}
	header, err := c.signer.Header(req.Method, base, query, cred, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	return nil
}

// KeyAuth authorizes with the consumer key and secret, for public endpoints.
type KeyAuth struct{}

func (KeyAuth) authorize(c *DiscogsClient, req *http.Request) error {
	req.Header.Set("Authorization", fmt.Sprintf("Discogs key=%s, secret=%s", c.consumerKey, c.consumerSec))
	return nil
}

// do sends req with the client's User-Agent and returns the body of a 2xx response.
func (c *DiscogsClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrUpstream, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrUpstream, err)
	}

	c.logger.Debug("discogs response", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newUpstreamError("discogs", resp.StatusCode, body)
	}
	return body, nil
}

// signedPost sends an empty POST to path with protocol parameters in the Authorization header.
func (c *DiscogsClient) signedPost(ctx context.Context, path string, cred oauth1.Credentials, extra oauth1.Params) ([]byte, error) {
	endpoint := c.baseURL + path

	base, query, err := oauth1.SplitURL(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to split url: %w", err)
	}

	header, err := c.signer.Header(http.MethodPost, base, query, cred, extra)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// RequestToken starts the handshake. The returned secret must be stashed by the caller
// until the callback, since Discogs does not send it back.
func (c *DiscogsClient) RequestToken(ctx context.Context, callbackURL string) (*models.TemporaryCredential, error) {
	body, err := c.signedPost(ctx, "/oauth/request_token", oauth1.Credentials{}, oauth1.Params{oauth1.ParamCallback: callbackURL})
	if err != nil {
		return nil, fmt.Errorf("%w: request token: %w", shared.ErrAuthFailed, err)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed request token response: %s", shared.ErrAuthFailed, body)
	}

	token, secret := values.Get(oauth1.ParamToken), values.Get(oauth1.ParamTokenSecret)
	if token == "" || secret == "" {
		return nil, fmt.Errorf("%w: request token response missing fields: %s", shared.ErrAuthFailed, body)
	}

	return &models.TemporaryCredential{
		Token:        token,
		Secret:       secret,
		AuthorizeURL: c.authorizeURL + "?" + oauth1.ParamToken + "=" + url.QueryEscape(token),
	}, nil
}

// AccessToken exchanges a temporary credential and verifier for a long-lived credential,
// then looks up the Discogs username it belongs to.
//
// A 400 or 401 from the access token endpoint means the temporary token was
// already used, expired, or the verifier did not match: [shared.ErrHandshakeExpired].
func (c *DiscogsClient) AccessToken(ctx context.Context, tmp models.TemporaryCredential, verifier string) (*models.AccessCredential, error) {
	if tmp.Token == "" || verifier == "" {
		return nil, shared.ErrMissingVerifier
	}

	body, err := c.signedPost(ctx, "/oauth/access_token",
		oauth1.Credentials{Token: tmp.Token, Secret: tmp.Secret},
		oauth1.Params{oauth1.ParamVerifier: verifier},
	)
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) && (upErr.Status == http.StatusUnauthorized || upErr.Status == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrHandshakeExpired, upErr)
		}
		return nil, err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed access token response", shared.ErrUpstream)
	}

	cred := models.AccessCredential{
		Token:  values.Get(oauth1.ParamToken),
		Secret: values.Get(oauth1.ParamTokenSecret),
	}
	if cred.Token == "" || cred.Secret == "" {
		return nil, fmt.Errorf("%w: access token response missing fields", shared.ErrUpstream)
	}

	identity, err := c.Identity(ctx, cred)
	if err != nil {
		return nil, err
	}
	cred.Username = identity.Username

	return &cred, nil
}

// Identity returns the Discogs account behind cred.
func (c *DiscogsClient) Identity(ctx context.Context, cred models.AccessCredential) (*models.Identity, error) {
	body, err := c.getRaw(ctx, c.baseURL+"/oauth/identity", OAuthAuth{Credential: cred})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIdentity, err)
	}

	res := gjson.ParseBytes(body)
	username := res.Get("username").String()
	if username == "" {
		return nil, fmt.Errorf("%w: response has no username", shared.ErrIdentity)
	}

	return &models.Identity{
		ID:           int(res.Get("id").Int()),
		Username:     username,
		ResourceURL:  res.Get("resource_url").String(),
		ConsumerName: res.Get("consumer_name").String(),
	}, nil
}

func (c *DiscogsClient) getRaw(ctx context.Context, rawURL string, auth Authorizer) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if auth == nil {
		auth = KeyAuth{}
	}
	if err := auth.authorize(c, req); err != nil {
		return nil, err
	}

	return c.do(req)
}

// Get issues an authorized GET for rawURL and decodes the JSON body into out.
// Non-2xx answers return an [*UpstreamError]; nothing is retried.
func (c *DiscogsClient) Get(ctx context.Context, rawURL string, auth Authorizer, out any) error {
	body, err := c.getRaw(ctx, rawURL, auth)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CollectionOptions selects one page of a collection folder.
type CollectionOptions struct {
	Page      int
	PerPage   int
	Sort      string
	SortOrder string
}

func (o CollectionOptions) values() url.Values {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = 50
	}
	if o.PerPage > 100 {
		o.PerPage = 100
	}
	if o.Sort == "" {
		o.Sort = "added"
	}
	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(o.Page))
	v.Set("per_page", strconv.Itoa(o.PerPage))
	v.Set("sort", o.Sort)
	v.Set("sort_order", o.SortOrder)
	return v
}

// Collection returns one page of the "All" folder of cred's collection.
func (c *DiscogsClient) Collection(ctx context.Context, cred models.AccessCredential, opts CollectionOptions) (*models.CollectionPage, error) {
	endpoint := fmt.Sprintf("%s/users/%s/collection/folders/0/releases?%s", c.baseURL, url.PathEscape(cred.Username), opts.values().Encode())

	var page models.CollectionPage
	if err := c.Get(ctx, endpoint, OAuthAuth{Credential: cred}, &page); err != nil {
		return nil, err
	}
	if page.Releases == nil {
		page.Releases = []models.CollectionRelease{}
	}
	return &page, nil
}

// CollectionValue returns the estimated value range of cred's collection.
func (c *DiscogsClient) CollectionValue(ctx context.Context, cred models.AccessCredential) (*models.CollectionValue, error) {
	endpoint := fmt.Sprintf("%s/users/%s/collection/value", c.baseURL, url.PathEscape(cred.Username))

	var value models.CollectionValue
	if err := c.Get(ctx, endpoint, OAuthAuth{Credential: cred}, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

// Search queries the release database. Type and Format default to "release" and "CD".
func (c *DiscogsClient) Search(ctx context.Context, q models.SearchQuery) (*models.SearchPage, error) {
	if q.Type == "" {
		q.Type = "release"
	}
	if q.Format == "" {
		q.Format = "CD"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}

	v := url.Values{}
	v.Set("q", q.Query)
	v.Set("type", q.Type)
	v.Set("format", q.Format)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))

	var page models.SearchPage
	if err := c.Get(ctx, c.baseURL+"/database/search?"+v.Encode(), KeyAuth{}, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []models.SearchResult{}
	}
	return &page, nil
}

// discogsRelease is the subset of the release resource that is projected into [models.ReleaseDetail].
type discogsRelease struct {
	models.ReleaseDetail
	Artists []models.Artist `json:"artists"`
}

// Release returns the projected detail of a release. A 404 maps to [shared.ErrReleaseNotFound].
func (c *DiscogsClient) Release(ctx context.Context, releaseID int) (*models.ReleaseDetail, error) {
	var raw discogsRelease
	err := c.Get(ctx, fmt.Sprintf("%s/releases/%d", c.baseURL, releaseID), KeyAuth{}, &raw)

	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.NotFound() {
		return nil, fmt.Errorf("%w: %d", shared.ErrReleaseNotFound, releaseID)
	}
	if err != nil {
		return nil, err
	}

	detail := raw.ReleaseDetail
	if detail.ArtistsSort == "" {
		names := make([]string, 0, len(raw.Artists))
		for _, a := range raw.Artists {
			names = append(names, a.Name)
		}
		detail.ArtistsSort = strings.Join(names, ", ")
	}
	if detail.ArtistsSort == "" {
		detail.ArtistsSort = "Unknown Artist"
	}

	if detail.Genres == nil {
		detail.Genres = []string{}
	}
	if detail.Styles == nil {
		detail.Styles = []string{}
	}
	if detail.Labels == nil {
		detail.Labels = []models.Label{}
	}
	if detail.Images == nil {
		detail.Images = []models.Image{}
	}
	if detail.Tracklist == nil {
		detail.Tracklist = []models.Track{}
	}
	if detail.ExtraArtists == nil {
		detail.ExtraArtists = []models.Artist{}
	}

	return &detail, nil
}

// SuggestionConditions lists media conditions in the order a price suggestion is preferred.
var SuggestionConditions = []string{
	"Very Good Plus (VG+)",
	"Near Mint (NM or M-)",
	"Good Plus (G+)",
}

// PriceSuggestion returns the suggested price for the first available condition in
// [SuggestionConditions], or nil when none is offered.
func (c *DiscogsClient) PriceSuggestion(ctx context.Context, auth Authorizer, releaseID int) (*models.Price, error) {
	body, err := c.getRaw(ctx, fmt.Sprintf("%s/marketplace/price_suggestions/%d", c.baseURL, releaseID), auth)
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	for _, cond := range SuggestionConditions {
		p := res.Get(gjson.Escape(cond))
		if !p.Exists() {
			continue
		}
		return &models.Price{
			Value:    p.Get("value").Float(),
			Currency: p.Get("currency").String(),
		}, nil
	}
	return nil, nil
}

// Listings returns the cheapest CD listings for releaseID currently for sale.
func (c *DiscogsClient) Listings(ctx context.Context, releaseID int, perPage int) (*models.ListingsPage, error) {
	if perPage < 1 {
		perPage = 5
	}

	v := url.Values{}
	v.Set("release_id", strconv.Itoa(releaseID))
	v.Set("status", "for sale")
	v.Set("format", "CD")
	v.Set("sort", "price")
	v.Set("sort_order", "asc")
	v.Set("per_page", strconv.Itoa(perPage))

	var page models.ListingsPage
	if err := c.Get(ctx, c.baseURL+"/marketplace/listings?"+v.Encode(), KeyAuth{}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
