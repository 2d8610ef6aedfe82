package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/oauth1"
	"github.com/desertthunder/cdx/internal/pending"
	"github.com/desertthunder/cdx/internal/shared"
	tu "github.com/desertthunder/cdx/internal/testing"
)

const (
	testKey    = "ckey"
	testSecret = "csecret"
	testAgent  = "CDXTest/1.0"
)

func newTestClient(t *testing.T) (*DiscogsClient, *tu.StubServer) {
	t.Helper()

	stub := tu.NewStubServer(t)
	client, err := NewDiscogsClient(DiscogsConfig{
		ConsumerKey:    testKey,
		ConsumerSecret: testSecret,
		UserAgent:      testAgent,
		BaseURL:        stub.URL,
		AuthorizeURL:   stub.URL + "/oauth/authorize",
	})
	require.NoError(t, err)
	return client, stub
}

// parseOAuthHeader decodes an "OAuth k="v", ..." header into its parameters.
func parseOAuthHeader(t *testing.T, h string) oauth1.Params {
	t.Helper()

	require.True(t, strings.HasPrefix(h, "OAuth "), "not an OAuth header: %q", h)

	p := oauth1.Params{}
	for _, part := range strings.Split(strings.TrimPrefix(h, "OAuth "), ", ") {
		k, v, ok := strings.Cut(part, "=")
		require.True(t, ok, "malformed header part %q", part)

		key, err := url.PathUnescape(k)
		require.NoError(t, err)
		val, err := url.PathUnescape(strings.Trim(v, `"`))
		require.NoError(t, err)
		p[key] = val
	}
	return p
}

// verifySignature recomputes the signature of a recorded request.
func verifySignature(t *testing.T, base string, r tu.Recorded, tokenSecret string) {
	t.Helper()

	p := parseOAuthHeader(t, r.Authorization)
	sig := p[oauth1.ParamSignature]
	delete(p, oauth1.ParamSignature)

	q, err := url.ParseQuery(r.RawQuery)
	require.NoError(t, err)
	for k, vs := range q {
		p[k] = vs[len(vs)-1]
	}

	want := oauth1.Sign(r.Method, base+r.Path, p, testSecret, tokenSecret)
	assert.Equal(t, want, sig, "signature mismatch for %s %s", r.Method, r.Path)
}

func identityHandler(username string) http.HandlerFunc {
	return tu.JSON(http.StatusOK, map[string]any{
		"id":            1,
		"username":      username,
		"resource_url":  "https://api.discogs.com/users/" + username,
		"consumer_name": "cdx",
	})
}

func TestNewDiscogsClient(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		for _, cfg := range []DiscogsConfig{
			{ConsumerSecret: "s"},
			{ConsumerKey: "k"},
			{},
		} {
			_, err := NewDiscogsClient(cfg)
			assert.ErrorIs(t, err, shared.ErrMissingCredentials)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := NewDiscogsClient(DiscogsConfig{ConsumerKey: "k", ConsumerSecret: "s"})
		require.NoError(t, err)
		assert.Equal(t, discogsBaseURL, c.baseURL)
		assert.Equal(t, discogsAuthorizeURL, c.authorizeURL)
		assert.Equal(t, defaultUserAgent, c.userAgent)
		assert.Equal(t, "Discogs", c.Name())
	})
}

func TestRequestToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/request_token", tu.Text(http.StatusOK, "oauth_token=rt&oauth_token_secret=rs&oauth_callback_confirmed=true"))

		tmp, err := client.RequestToken(context.Background(), "http://localhost:3000/callback")
		require.NoError(t, err)

		assert.Equal(t, "rt", tmp.Token)
		assert.Equal(t, "rs", tmp.Secret)
		assert.Equal(t, stub.URL+"/oauth/authorize?oauth_token=rt", tmp.AuthorizeURL)

		reqs := stub.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPost, reqs[0].Method)
		assert.Equal(t, testAgent, reqs[0].UserAgent)

		p := parseOAuthHeader(t, reqs[0].Authorization)
		assert.Equal(t, "http://localhost:3000/callback", p[oauth1.ParamCallback])
		assert.Equal(t, testKey, p[oauth1.ParamConsumerKey])
		assert.Equal(t, oauth1.SignatureMethod, p[oauth1.ParamSignatureMethod])
		assert.NotContains(t, p, oauth1.ParamToken)
		verifySignature(t, stub.URL, reqs[0], "")
	})

	t.Run("upstream rejection carries body", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/request_token", tu.Text(http.StatusUnauthorized, "Invalid consumer."))

		_, err := client.RequestToken(context.Background(), "http://localhost:3000/callback")
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.ErrorIs(t, err, shared.ErrUpstream)
		assert.Contains(t, err.Error(), "Invalid consumer.")
	})

	t.Run("missing fields", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/request_token", tu.Text(http.StatusOK, "oauth_token=rt"))

		_, err := client.RequestToken(context.Background(), "http://localhost:3000/callback")
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
	})

	t.Run("fresh nonce per request", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/request_token", tu.Text(http.StatusOK, "oauth_token=rt&oauth_token_secret=rs"))

		for range 2 {
			_, err := client.RequestToken(context.Background(), "http://localhost:3000/callback")
			require.NoError(t, err)
		}

		reqs := stub.Requests()
		a := parseOAuthHeader(t, reqs[0].Authorization)
		b := parseOAuthHeader(t, reqs[1].Authorization)
		assert.NotEqual(t, a[oauth1.ParamNonce], b[oauth1.ParamNonce])
	})
}

func TestAccessToken(t *testing.T) {
	tmp := models.TemporaryCredential{Token: "rt", Secret: "rs"}

	t.Run("success with identity", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/access_token", tu.Text(http.StatusOK, "oauth_token=at&oauth_token_secret=as"))
		stub.Handle("/oauth/identity", identityHandler("vinylfan"))

		cred, err := client.AccessToken(context.Background(), tmp, "verifier")
		require.NoError(t, err)
		assert.Equal(t, models.AccessCredential{Username: "vinylfan", Token: "at", Secret: "as"}, *cred)

		reqs := stub.Requests()
		require.Len(t, reqs, 2)

		exchange := parseOAuthHeader(t, reqs[0].Authorization)
		assert.Equal(t, "rt", exchange[oauth1.ParamToken])
		assert.Equal(t, "verifier", exchange[oauth1.ParamVerifier])
		verifySignature(t, stub.URL, reqs[0], "rs")

		assert.Equal(t, http.MethodGet, reqs[1].Method)
		assert.Equal(t, "at", parseOAuthHeader(t, reqs[1].Authorization)[oauth1.ParamToken])
		verifySignature(t, stub.URL, reqs[1], "as")

		for _, r := range reqs {
			assert.Equal(t, testAgent, r.UserAgent)
		}
	})

	t.Run("missing verifier or token", func(t *testing.T) {
		client, stub := newTestClient(t)

		_, err := client.AccessToken(context.Background(), tmp, "")
		assert.ErrorIs(t, err, shared.ErrMissingVerifier)

		_, err = client.AccessToken(context.Background(), models.TemporaryCredential{Secret: "rs"}, "v")
		assert.ErrorIs(t, err, shared.ErrMissingVerifier)

		assert.Empty(t, stub.Requests())
	})

	t.Run("reused temporary token", func(t *testing.T) {
		client, stub := newTestClient(t)

		var used atomic.Bool
		stub.Handle("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
			if used.Swap(true) {
				tu.Text(http.StatusUnauthorized, "Invalid request token.")(w, r)
				return
			}
			tu.Text(http.StatusOK, "oauth_token=at&oauth_token_secret=as")(w, r)
		})
		stub.Handle("/oauth/identity", identityHandler("vinylfan"))

		_, err := client.AccessToken(context.Background(), tmp, "verifier")
		require.NoError(t, err)

		_, err = client.AccessToken(context.Background(), tmp, "verifier")
		assert.ErrorIs(t, err, shared.ErrHandshakeExpired)

		var upErr *UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusUnauthorized, upErr.Status)
	})

	t.Run("server error is upstream failure", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/access_token", tu.Text(http.StatusBadGateway, "bad gateway"))

		_, err := client.AccessToken(context.Background(), tmp, "verifier")
		assert.ErrorIs(t, err, shared.ErrUpstream)
		assert.NotErrorIs(t, err, shared.ErrHandshakeExpired)
	})

	t.Run("identity failure", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/access_token", tu.Text(http.StatusOK, "oauth_token=at&oauth_token_secret=as"))
		stub.Handle("/oauth/identity", tu.Text(http.StatusInternalServerError, "oops"))

		_, err := client.AccessToken(context.Background(), tmp, "verifier")
		assert.ErrorIs(t, err, shared.ErrIdentity)
	})

	t.Run("identity without username", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/access_token", tu.Text(http.StatusOK, "oauth_token=at&oauth_token_secret=as"))
		stub.Handle("/oauth/identity", tu.JSON(http.StatusOK, map[string]any{"id": 1}))

		_, err := client.AccessToken(context.Background(), tmp, "verifier")
		assert.ErrorIs(t, err, shared.ErrIdentity)
	})
}

func TestHandshake(t *testing.T) {
	setup := func(t *testing.T) (*Handshake, *tu.StubServer) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/request_token", tu.Text(http.StatusOK, "oauth_token=rt&oauth_token_secret=rs"))
		stub.Handle("/oauth/access_token", tu.Text(http.StatusOK, "oauth_token=at&oauth_token_secret=as"))
		stub.Handle("/oauth/identity", identityHandler("vinylfan"))

		store := pending.NewMemoryStore(0)
		t.Cleanup(store.Stop)
		return NewHandshake(client, store), stub
	}

	t.Run("begin and complete", func(t *testing.T) {
		h, stub := setup(t)
		ctx := context.Background()

		tmp, err := h.Begin(ctx, "user-a", "http://localhost:3000/callback")
		require.NoError(t, err)

		cred, err := h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		require.NoError(t, err)
		assert.Equal(t, "vinylfan", cred.Username)

		reqs := stub.Requests()
		verifySignature(t, stub.URL, reqs[1], "rs")
	})

	t.Run("replayed callback", func(t *testing.T) {
		h, stub := setup(t)
		ctx := context.Background()

		tmp, err := h.Begin(ctx, "user-a", "http://localhost:3000/callback")
		require.NoError(t, err)

		_, err = h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		require.NoError(t, err)

		_, err = h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		assert.ErrorIs(t, err, shared.ErrHandshakeExpired)
		assert.Equal(t, 1, stub.Count("/oauth/access_token"))
	})

	t.Run("callback from another user", func(t *testing.T) {
		h, stub := setup(t)
		ctx := context.Background()

		tmp, err := h.Begin(ctx, "user-a", "http://localhost:3000/callback")
		require.NoError(t, err)

		_, err = h.Complete(ctx, "user-b", Callback{Token: tmp.Token, Verifier: "v"})
		assert.ErrorIs(t, err, shared.ErrHandshakeExpired)
		assert.Zero(t, stub.Count("/oauth/access_token"))

		cred, err := h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		require.NoError(t, err)
		assert.Equal(t, "vinylfan", cred.Username)
	})

	t.Run("denial from another user keeps the flow", func(t *testing.T) {
		h, _ := setup(t)
		ctx := context.Background()

		tmp, err := h.Begin(ctx, "user-a", "http://localhost:3000/callback")
		require.NoError(t, err)

		_, err = h.Complete(ctx, "user-b", Callback{Token: tmp.Token, Denied: true})
		assert.ErrorIs(t, err, shared.ErrAuthorizationDenied)

		_, err = h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		assert.NoError(t, err)
	})

	t.Run("denied short-circuits", func(t *testing.T) {
		h, stub := setup(t)

		_, err := h.Complete(context.Background(), "user-a", ParseCallback(url.Values{"denied": {"1"}}))
		assert.ErrorIs(t, err, shared.ErrAuthorizationDenied)
		assert.Empty(t, stub.Requests())
	})

	t.Run("missing verifier", func(t *testing.T) {
		h, stub := setup(t)

		_, err := h.Complete(context.Background(), "user-a", ParseCallback(url.Values{"oauth_token": {"rt"}}))
		assert.ErrorIs(t, err, shared.ErrMissingVerifier)
		assert.Empty(t, stub.Requests())
	})

	t.Run("never issued", func(t *testing.T) {
		h, stub := setup(t)

		_, err := h.Complete(context.Background(), "user-a", Callback{Token: "unknown", Verifier: "v"})
		assert.ErrorIs(t, err, shared.ErrHandshakeExpired)
		assert.Empty(t, stub.Requests())
	})

	t.Run("failed exchange consumes secret", func(t *testing.T) {
		h, stub := setup(t)
		ctx := context.Background()
		stub.Handle("/oauth/access_token", tu.Text(http.StatusInternalServerError, "boom"))

		tmp, err := h.Begin(ctx, "user-a", "http://localhost:3000/callback")
		require.NoError(t, err)

		_, err = h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		assert.ErrorIs(t, err, shared.ErrUpstream)

		_, err = h.Complete(ctx, "user-a", Callback{Token: tmp.Token, Verifier: "v"})
		assert.ErrorIs(t, err, shared.ErrHandshakeExpired)
	})
}

func TestGet(t *testing.T) {
	cred := models.AccessCredential{Username: "vinylfan", Token: "at", Secret: "as"}

	t.Run("signed with query parameters", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/users/vinylfan/collection/folders/0/releases", tu.JSON(http.StatusOK, map[string]any{"releases": []any{}}))

		var out map[string]any
		err := client.Get(context.Background(), stub.URL+"/users/vinylfan/collection/folders/0/releases?page=2&per_page=100", OAuthAuth{Credential: cred}, &out)
		require.NoError(t, err)

		r := stub.Requests()[0]
		assert.Equal(t, "page=2&per_page=100", r.RawQuery)
		assert.NotContains(t, parseOAuthHeader(t, r.Authorization), "page")
		verifySignature(t, stub.URL, r, "as")
	})

	t.Run("repeated query key is not sent", func(t *testing.T) {
		client, stub := newTestClient(t)

		err := client.Get(context.Background(), stub.URL+"/users/vinylfan/collection/folders/0/releases?sort=added&sort=year", OAuthAuth{Credential: cred}, nil)

		assert.ErrorIs(t, err, oauth1.ErrRepeatedParam)
		assert.Empty(t, stub.Requests())
	})

	t.Run("empty token secret still signs", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/oauth/identity", tu.Text(http.StatusUnauthorized, `{"message": "You must authenticate to access this resource."}`))

		err := client.Get(context.Background(), stub.URL+"/oauth/identity", OAuthAuth{Credential: models.AccessCredential{Token: "at"}}, nil)

		var upErr *UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusUnauthorized, upErr.Status)
		verifySignature(t, stub.URL, stub.Requests()[0], "")
	})

	t.Run("key authorization", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/releases/1", tu.JSON(http.StatusOK, map[string]any{"id": 1}))

		require.NoError(t, client.Get(context.Background(), stub.URL+"/releases/1", KeyAuth{}, nil))

		r := stub.Requests()[0]
		assert.Equal(t, "Discogs key=ckey, secret=csecret", r.Authorization)
		assert.Equal(t, testAgent, r.UserAgent)
	})

	t.Run("upstream failure", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/releases/1", tu.Text(http.StatusTooManyRequests, "slow down"))

		err := client.Get(context.Background(), stub.URL+"/releases/1", KeyAuth{}, nil)
		assert.ErrorIs(t, err, shared.ErrUpstream)

		var upErr *UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusTooManyRequests, upErr.Status)
		assert.Equal(t, "slow down", upErr.Body)
		assert.Equal(t, 1, stub.Count("/releases/1"), "requests must not be retried")
	})

	t.Run("network failure", func(t *testing.T) {
		client, err := NewDiscogsClient(DiscogsConfig{
			ConsumerKey:    testKey,
			ConsumerSecret: testSecret,
			HTTPClient:     &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial tcp: no route"))},
		})
		require.NoError(t, err)

		err = client.Get(context.Background(), "https://api.discogs.com/releases/1", KeyAuth{}, nil)
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})

	t.Run("unreadable body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client, err := NewDiscogsClient(DiscogsConfig{
			ConsumerKey:    testKey,
			ConsumerSecret: testSecret,
			HTTPClient:     &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)},
		})
		require.NoError(t, err)

		err = client.Get(context.Background(), "https://api.discogs.com/releases/1", KeyAuth{}, nil)
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})

	t.Run("invalid json", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/releases/1", tu.Text(http.StatusOK, "not json"))

		var out map[string]any
		err := client.Get(context.Background(), stub.URL+"/releases/1", KeyAuth{}, &out)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrUpstream)
	})
}

func TestDiscogsEndpoints(t *testing.T) {
	cred := models.AccessCredential{Username: "vinylfan", Token: "at", Secret: "as"}

	t.Run("Collection", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/users/vinylfan/collection/folders/0/releases", tu.JSON(http.StatusOK, map[string]any{
			"pagination": map[string]any{"page": 1, "pages": 3, "per_page": 100, "items": 250},
			"releases": []any{map[string]any{
				"id": 10,
				"basic_information": map[string]any{
					"title":   "Mezzanine",
					"formats": []any{map[string]any{"name": "CD", "qty": "1"}},
					"artists": []any{map[string]any{"name": "Massive Attack"}},
				},
			}},
		}))

		page, err := client.Collection(context.Background(), cred, CollectionOptions{Page: 1, PerPage: 500})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Pagination.Pages)
		require.Len(t, page.Releases, 1)
		assert.Equal(t, "Massive Attack", page.Releases[0].Artist())

		r := stub.Requests()[0]
		q, _ := url.ParseQuery(r.RawQuery)
		assert.Equal(t, "100", q.Get("per_page"), "per_page is capped")
		assert.Equal(t, "added", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("sort_order"))
		verifySignature(t, stub.URL, r, "as")
	})

	t.Run("CollectionValue", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/users/vinylfan/collection/value", tu.JSON(http.StatusOK, models.CollectionValue{Minimum: "$10.00", Median: "$20.00", Maximum: "$30.00"}))

		v, err := client.CollectionValue(context.Background(), cred)
		require.NoError(t, err)
		assert.Equal(t, "$20.00", v.Median)
	})

	t.Run("Search defaults", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/database/search", tu.JSON(http.StatusOK, map[string]any{
			"results":    []any{map[string]any{"id": 5, "title": "Portishead - Dummy", "format": []string{"CD", "Album"}}},
			"pagination": map[string]any{"pages": 1, "items": 1},
		}))

		page, err := client.Search(context.Background(), models.SearchQuery{Query: "dummy"})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, []string{"CD", "Album"}, page.Results[0].Format)

		q, _ := url.ParseQuery(stub.Requests()[0].RawQuery)
		assert.Equal(t, "release", q.Get("type"))
		assert.Equal(t, "CD", q.Get("format"))
		assert.Equal(t, "20", q.Get("per_page"))
	})

	t.Run("Release projection", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/releases/7", tu.JSON(http.StatusOK, map[string]any{
			"id":        7,
			"title":     "Homogenic",
			"year":      1997,
			"artists":   []any{map[string]any{"name": "Björk"}, map[string]any{"name": "Guest"}},
			"labels":    []any{map[string]any{"name": "One Little Indian", "catno": "TPLP71CD", "id": 3}},
			"tracklist": []any{map[string]any{"position": "1", "title": "Hunter", "duration": "4:15", "type_": "track"}},
			"community": map[string]any{"have": 10, "want": 20, "rating": map[string]any{"count": 3, "average": 4.5}},
		}))

		got, err := client.Release(context.Background(), 7)
		require.NoError(t, err)

		want := &models.ReleaseDetail{
			ID:           7,
			Title:        "Homogenic",
			ArtistsSort:  "Björk, Guest",
			Year:         1997,
			Genres:       []string{},
			Styles:       []string{},
			Labels:       []models.Label{{Name: "One Little Indian", Catno: "TPLP71CD"}},
			Images:       []models.Image{},
			Tracklist:    []models.Track{{Position: "1", Title: "Hunter", Duration: "4:15"}},
			ExtraArtists: []models.Artist{},
			Community:    &models.Community{Have: 10, Want: 20, Rating: models.Rating{Count: 3, Average: 4.5}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Release() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Release unknown artist", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/releases/8", tu.JSON(http.StatusOK, map[string]any{"id": 8}))

		got, err := client.Release(context.Background(), 8)
		require.NoError(t, err)
		assert.Equal(t, "Unknown Artist", got.ArtistsSort)
	})

	t.Run("Release not found", func(t *testing.T) {
		client, _ := newTestClient(t)

		_, err := client.Release(context.Background(), 404)
		assert.ErrorIs(t, err, shared.ErrReleaseNotFound)
	})

	t.Run("PriceSuggestion preference", func(t *testing.T) {
		tc := []struct {
			name string
			body map[string]any
			want *models.Price
		}{
			{
				name: "VG+ first",
				body: map[string]any{
					"Near Mint (NM or M-)": map[string]any{"value": 12.0, "currency": "USD"},
					"Very Good Plus (VG+)": map[string]any{"value": 9.5, "currency": "USD"},
				},
				want: &models.Price{Value: 9.5, Currency: "USD"},
			},
			{
				name: "NM fallback",
				body: map[string]any{
					"Good Plus (G+)":       map[string]any{"value": 3.0, "currency": "EUR"},
					"Near Mint (NM or M-)": map[string]any{"value": 12.0, "currency": "EUR"},
				},
				want: &models.Price{Value: 12, Currency: "EUR"},
			},
			{
				name: "G+ fallback",
				body: map[string]any{"Good Plus (G+)": map[string]any{"value": 3.0, "currency": "USD"}},
				want: &models.Price{Value: 3, Currency: "USD"},
			},
			{
				name: "none",
				body: map[string]any{"Poor (P)": map[string]any{"value": 1.0, "currency": "USD"}},
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				client, stub := newTestClient(t)
				stub.Handle("/marketplace/price_suggestions/3", tu.JSON(http.StatusOK, tt.body))

				got, err := client.PriceSuggestion(context.Background(), KeyAuth{}, 3)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("Listings", func(t *testing.T) {
		client, stub := newTestClient(t)
		stub.Handle("/marketplace/listings", tu.JSON(http.StatusOK, map[string]any{
			"listings":   []any{map[string]any{"price": map[string]any{"value": 4.99, "currency": "USD"}, "condition": "Mint (M)"}},
			"pagination": map[string]any{"items": 12},
		}))

		page, err := client.Listings(context.Background(), 3, 0)
		require.NoError(t, err)
		assert.Equal(t, 12, page.Pagination.Items)
		require.Len(t, page.Listings, 1)
		assert.Equal(t, 4.99, page.Listings[0].Price.Value)

		q, _ := url.ParseQuery(stub.Requests()[0].RawQuery)
		assert.Equal(t, "3", q.Get("release_id"))
		assert.Equal(t, "for sale", q.Get("status"))
		assert.Equal(t, "5", q.Get("per_page"))
	})
}
