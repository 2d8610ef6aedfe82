// Package ui renders CLI output with lipgloss: a small [Palette] for status lines,
// bordered tables for releases, wishlist items, and alerts, and one-line progress
// updates streamed from the tasks engines.
package ui
