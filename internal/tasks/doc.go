// Package tasks orchestrates collection, price, and analysis operations against Discogs and the AI gateway.
//
// # Engines
//
//  1. [CollectionEngine] : CD subset of a user's collection
//     - [CollectionEngine.FetchPage] loads one signed page, filters it to CDs, and adds the collection value
//     - [CollectionEngine.FetchAll] walks up to MaxPages pages, throttled between requests
//
//  2. [PriceEngine] : marketplace prices and alerts
//     - [PriceEngine.Check] fetches the price suggestion and cheapest CD listings concurrently
//     - [PriceEngine.SetAlert] records a target price on a wishlist item
//     - [PriceEngine.RefreshAlerts] re-checks every alert of a user with a rate-limited worker pool
//
//  3. [AnalysisEngine] : natural-language collection analysis through the gateway
//
//  4. [ExportEngine] : writes the collection and wishlist to disk in JSON, CSV, Markdown, or text
//
// # Progress Reporting
//
// Long-running operations accept a progress channel. Sends never block: a full or nil channel drops the update.
package tasks
