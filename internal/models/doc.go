// Package models defines domain entities and persistence interfaces for the cdx collection service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring Discogs payloads and OAuth credentials
//   - [TemporaryCredential] : request token, its secret, and the authorize URL
//   - [AccessCredential] : long-lived token pair with the Discogs username
//   - [CollectionRelease] : one entry of a user's collection folder
//   - [SearchResult] : projected database search hit
//   - [ReleaseDetail] : projected release page
//   - [PriceCheck] : suggested price and cheapest listings for a release
//
// 2. Persistent Entities: database-backed models
//   - [User] : application accounts, identified to the relay by an opaque API token
//   - [Profile] : per-user Discogs connection (all credential fields nil means not connected)
//   - [WishlistItem] : releases a user wants, unique per user and release
//   - [PriceAlert] : target price for a wishlist item, one per item
//
// [User] and [WishlistItem] implement [Model]; the Repository[T] interface defines CRUD for them.
package models
