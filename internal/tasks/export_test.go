package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
	th "github.com/desertthunder/cdx/internal/testing"
)

func newExportEngine(profiles *fakeProfiles, wishlist *fakeWishlist) *ExportEngine {
	discogs := &fakeDiscogs{
		pages: map[int]*models.CollectionPage{
			1: page(1, 1, release(1, "Dummy", "Portishead", "CD"), release(2, "Blue Lines", "Massive Attack", "Vinyl")),
		},
		value: &models.CollectionValue{Minimum: "$1", Median: "$2", Maximum: "$3"},
	}
	collection := NewCollectionEngine(discogs, profiles, CollectionOpts{}, nil)
	e := NewExportEngine(collection, wishlist, nil)
	e.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestExportEngine(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{"u1": connectedProfile("u1")}}
	wishlist := &fakeWishlist{items: []*models.WishlistItem{wishItem("w1", "u1", 42), wishItem("w2", "u2", 43)}}

	t.Run("csv", func(t *testing.T) {
		dir := t.TempDir()
		e := newExportEngine(profiles, wishlist)
		progress := make(chan ProgressUpdate, 32)

		res, err := e.Export(context.Background(), "u1", ExportOpts{Format: FormatCSV, OutputDir: dir}, progress)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		m := res.Manifest
		if m.Format != FormatCSV || m.Releases != 1 || m.WishlistItems != 1 || m.DiscogsUsername != "vinylfan" {
			t.Errorf("unexpected manifest %+v", m)
		}
		if len(m.Files) != 3 {
			t.Fatalf("expected 3 files, got %v", m.Files)
		}
		for _, f := range m.Files {
			th.AssertFileExists(t, f)
		}
		if res.ManifestPath != filepath.Join(dir, "export_manifest.json") {
			t.Errorf("unexpected manifest path %q", res.ManifestPath)
		}
		th.AssertFileExists(t, res.ManifestPath)
		if len(drain(progress)) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("formats", func(t *testing.T) {
		for _, format := range []string{"", FormatJSON, FormatMarkdown, FormatText} {
			dir := t.TempDir()
			e := newExportEngine(profiles, wishlist)

			res, err := e.Export(context.Background(), "u1", ExportOpts{Format: format, OutputDir: dir}, nil)
			if err != nil {
				t.Fatalf("Export(%q) failed: %v", format, err)
			}
			if len(res.Manifest.Files) == 0 {
				t.Errorf("Export(%q) wrote no files", format)
			}
			for _, f := range res.Manifest.Files {
				th.AssertFileExists(t, f)
			}
		}
	})

	t.Run("wishlist only when not connected", func(t *testing.T) {
		e := newExportEngine(&fakeProfiles{}, wishlist)

		res, err := e.Export(context.Background(), "u2", ExportOpts{Format: FormatJSON, OutputDir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if res.Manifest.Releases != 0 || res.Manifest.WishlistItems != 1 {
			t.Errorf("unexpected manifest %+v", res.Manifest)
		}
		if res.Library.Releases == nil {
			t.Error("releases should be an empty slice")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		e := newExportEngine(profiles, wishlist)

		_, err := e.Export(context.Background(), "u1", ExportOpts{Format: "xml", OutputDir: t.TempDir()}, nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("wishlist failure", func(t *testing.T) {
		e := newExportEngine(profiles, &fakeWishlist{err: errors.New("db down")})

		if _, err := e.Export(context.Background(), "u1", ExportOpts{OutputDir: t.TempDir()}, nil); err == nil {
			t.Fatal("expected error")
		}
	})
}
