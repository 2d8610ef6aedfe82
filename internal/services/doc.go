// Package services implements the outbound HTTP clients of cdx.
//
// # Discogs
//
// [DiscogsClient] is the single OAuth 1.0a client for Discogs. It is built once from
// an immutable [DiscogsConfig] and exposes the three protocol operations:
//   - [DiscogsClient.RequestToken] : temporary credential and authorize URL
//   - [DiscogsClient.AccessToken] : verifier exchange followed by an identity lookup
//   - [DiscogsClient.Get] : authorized GET with JSON decoding
//
// Each call to Get picks an [Authorizer]: [OAuthAuth] signs with a user's access
// credential, folding query parameters into the signature; [KeyAuth] sends the
// consumer key and secret for public endpoints. Every request carries the
// configured User-Agent.
//
// [Handshake] pairs the client with a pending.Store so the temporary secret
// survives the redirect and is consumed exactly once.
//
// # AI gateway
//
// [GatewayClient] posts OpenAI-compatible chat completions, authenticating with an
// [oauth2.StaticTokenSource] bearer token.
//
// # Error Handling
//
// Non-2xx answers become [*UpstreamError] values carrying status and body, which
// match [shared.ErrUpstream]. Handshake failures match one of
// [shared.ErrAuthFailed], [shared.ErrAuthorizationDenied], [shared.ErrMissingVerifier],
// [shared.ErrHandshakeExpired], or [shared.ErrIdentity]. Nothing is retried.
package services
