package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cdx/internal/formatter"
	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

// Export formats accepted by [ExportEngine.Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ExportOpts contains configuration for a library export.
type ExportOpts struct {
	Format    string // Export format: json, csv, markdown, txt
	OutputDir string // Base output directory (default: cdx_export_{epoch})
	Cover     bool   // Download the newest release's cover for Markdown exports
	UserAgent string // User-Agent for the cover download
}

// ExportResult describes a finished export.
type ExportResult struct {
	Library      *models.LibraryExport
	Manifest     *models.ExportManifest
	ManifestPath string
}

// ExportEngine writes a user's CD collection and wishlist to disk.
type ExportEngine struct {
	collection *CollectionEngine
	wishlist   WishlistStore
	logger     *log.Logger
	now        func() time.Time
}

func NewExportEngine(collection *CollectionEngine, wishlist WishlistStore, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExportEngine{collection: collection, wishlist: wishlist, logger: logger, now: time.Now}
}

// Export gathers the library and writes it in opts.Format with an export_manifest.json beside it.
//
// A user without a Discogs connection still gets their wishlist exported.
func (e *ExportEngine) Export(ctx context.Context, userID string, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	switch opts.Format {
	case "":
		opts.Format = FormatJSON
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}

	now := e.now()
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("cdx_export_%d", now.Unix())
	}

	library := &models.LibraryExport{ExportedAt: now, Releases: []models.CollectionRelease{}}

	collection, err := e.collection.FetchAll(ctx, userID, progress)
	switch {
	case errors.Is(err, shared.ErrNotConnected):
		e.logger.Warn("discogs not connected, exporting wishlist only", "user_id", userID)
	case err != nil:
		return nil, err
	default:
		library.DiscogsUsername = collection.DiscogsUsername
		library.Releases = collection.Releases
		library.Value = collection.Value
	}

	wishlist, err := e.wishlist.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	library.Wishlist = wishlist
	sendProgress(progress, fetchWishlistUpdate(len(wishlist)))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := e.write(library, opts)
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		sendProgress(progress, exportUpdate(i+1, len(files), f))
	}

	manifest := &models.ExportManifest{
		Format:          opts.Format,
		DiscogsUsername: library.DiscogsUsername,
		CreatedAt:       now,
		Releases:        len(library.Releases),
		WishlistItems:   len(library.Wishlist),
		Files:           files,
	}
	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return nil, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}

	return &ExportResult{Library: library, Manifest: manifest, ManifestPath: manifestPath}, nil
}

func (e *ExportEngine) write(library *models.LibraryExport, opts ExportOpts) ([]string, error) {
	switch opts.Format {
	case FormatCSV:
		res, err := formatter.WriteCSVExport(library, filepath.Join(opts.OutputDir, "cdx"))
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return res.Files(), nil

	case FormatMarkdown:
		var imageURL string
		if opts.Cover && len(library.Releases) > 0 {
			imageURL = library.Releases[0].BasicInformation.CoverImage
		}

		res, err := formatter.WriteMarkdownExport(library, opts.OutputDir, imageURL, opts.UserAgent)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil

	case FormatText:
		path, err := formatter.WriteTextExport(library, filepath.Join(opts.OutputDir, "cdx_export.txt"))
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil

	default:
		path, err := formatter.WriteJSONExport(library, filepath.Join(opts.OutputDir, "cdx_export.json"))
		if err != nil {
			return nil, fmt.Errorf("JSON export failed: %w", err)
		}
		return []string{path}, nil
	}
}
