// Package repositories implements SQLite persistence for all domain entities.
//
// Users and wishlist items carry sequence numbers for stable, human-readable ordering
// independent of UUIDs. The [NextSequence] function atomically increments per-table
// sequence counters in dedicated sequence tables. Users are soft deleted.
//
// Key Implementations:
//   - [UserRepository] : accounts with email and API token lookups
//   - [ProfileRepository] : the Discogs connection of each user
//   - [WishlistRepository] : wanted releases, unique per user and release
//   - [PriceAlertRepository] : target prices keyed by wishlist item
package repositories
