// Package oauth1 computes OAuth 1.0a HMAC-SHA1 request signatures.
//
// It holds no state and performs no I/O. A [Signer] produces the full set of
// protocol parameters for one request, including a fresh nonce and timestamp,
// and the functions below it are the individual steps of RFC 5849 §3.4.
package oauth1
