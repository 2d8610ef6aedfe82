// Package pending holds temporary credentials between the authorization redirect and the callback.
//
// Discogs does not return the request token secret at the callback, so the
// secret is stashed under its token when the handshake starts. [Store.Take]
// removes the entry as it reads it: a temporary credential serves exactly one
// access token exchange, whatever its outcome.
package pending

import (
	"context"
	"time"

	"github.com/desertthunder/cdx/internal/models"
)

// DefaultTTL bounds how long an abandoned handshake is remembered.
const DefaultTTL = 15 * time.Minute

// Store is an ephemeral key-value store for temporary credentials.
type Store interface {
	Put(ctx context.Context, tmp models.TemporaryCredential) error
	// Take returns and deletes the credential for token, or [shared.ErrHandshakeExpired].
	Take(ctx context.Context, token string) (models.TemporaryCredential, error)
}
