package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Discogs handshake errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrAuthorizationDenied = fmt.Errorf("authorization denied by user")
	ErrMissingVerifier     = fmt.Errorf("missing oauth token or verifier")
	ErrHandshakeExpired    = fmt.Errorf("authorization expired or already used")
	ErrIdentity            = fmt.Errorf("identity lookup failed")
	ErrSignature           = fmt.Errorf("signature computation failed")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Application user errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNotConnected     = fmt.Errorf("discogs account not connected")
	ErrUserNotFound     = fmt.Errorf("user not found")

	// API and service errors
	ErrUpstream           = fmt.Errorf("upstream request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrQuotaExhausted     = fmt.Errorf("credits exhausted")
	ErrEmptyCompletion    = fmt.Errorf("no analysis generated")
	ErrReleaseNotFound    = fmt.Errorf("release not found")

	// Wishlist errors
	ErrAlreadyInWishlist = fmt.Errorf("already in wishlist")
	ErrWishlistNotFound  = fmt.Errorf("wishlist item not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidAnalysis = fmt.Errorf("invalid analysis type")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
