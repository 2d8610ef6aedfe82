// Package server provides HTTP routing, middleware, the JSON relay, and the CLI OAuth callback handler.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses a chi mux internally. Middleware wraps the whole mux,
// so preflight requests and unknown paths pass through [CORS] and [RequestLogger] too.
//
// # Relay
//
// [Relay] registers the /api routes used by browser clients. Every route resolves the caller's
// bearer token through [RequireUser]; an unknown token answers 401 with needs_auth set.
// Domain errors map onto status codes in one place (statusFor), so handlers only decide
// the few responses that differ from the default mapping.
//
// # OAuth Callback Handler
//
// [OAuthHandler] completes the Discogs handshake for the CLI. A temporary server on localhost
// receives the redirect, exchanges the verifier through a [HandshakeFlow], and sends the
// result through a channel. It only processes one callback.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
