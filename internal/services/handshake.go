package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/oauth1"
	"github.com/desertthunder/cdx/internal/pending"
	"github.com/desertthunder/cdx/internal/shared"
)

// Callback carries the query parameters Discogs appends when redirecting back.
type Callback struct {
	Token    string
	Verifier string
	Denied   bool
}

// ParseCallback reads oauth_token, oauth_verifier, and denied from q.
func ParseCallback(q url.Values) Callback {
	return Callback{
		Token:    q.Get(oauth1.ParamToken),
		Verifier: q.Get(oauth1.ParamVerifier),
		Denied:   q.Has("denied"),
	}
}

// Handshake runs the three-legged flow, keeping each temporary secret in a [pending.Store]
// between [Handshake.Begin] and [Handshake.Complete].
type Handshake struct {
	client *DiscogsClient
	store  pending.Store
}

func NewHandshake(client *DiscogsClient, store pending.Store) *Handshake {
	return &Handshake{client: client, store: store}
}

// Begin obtains a request token and stashes its secret under owner. Redirect the user to the returned AuthorizeURL.
func (h *Handshake) Begin(ctx context.Context, owner, callbackURL string) (*models.TemporaryCredential, error) {
	tmp, err := h.client.RequestToken(ctx, callbackURL)
	if err != nil {
		return nil, err
	}
	tmp.Owner = owner

	if err := h.store.Put(ctx, *tmp); err != nil {
		return nil, fmt.Errorf("failed to stash temporary credential: %w", err)
	}
	return tmp, nil
}

// Complete finishes the flow for a callback.
//
// A denied callback returns [shared.ErrAuthorizationDenied] without any request.
// The stashed secret is consumed before the exchange, so a replayed callback
// fails with [shared.ErrHandshakeExpired] even if the first attempt failed.
// A callback presented by anyone other than the owner passed to Begin fails the same way
// and leaves the owner's pending entry in place.
func (h *Handshake) Complete(ctx context.Context, owner string, cb Callback) (*models.AccessCredential, error) {
	if cb.Denied {
		if cb.Token != "" {
			if tmp, err := h.store.Take(ctx, cb.Token); err == nil && tmp.Owner != owner {
				_ = h.store.Put(ctx, tmp)
			}
		}
		return nil, shared.ErrAuthorizationDenied
	}
	if cb.Token == "" || cb.Verifier == "" {
		return nil, shared.ErrMissingVerifier
	}

	tmp, err := h.store.Take(ctx, cb.Token)
	if errors.Is(err, shared.ErrHandshakeExpired) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if tmp.Owner != owner {
		_ = h.store.Put(ctx, tmp)
		return nil, fmt.Errorf("%w: authorization was started by another user", shared.ErrHandshakeExpired)
	}

	return h.client.AccessToken(ctx, tmp, cb.Verifier)
}
