package tasks

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
)

const (
	defaultPerPage  = 100
	defaultMaxPages = 10
)

// cdFormats holds the case-folded format names counted as compact discs.
var cdFormats = foldSet("CD", "CDr", "HDCD", "CD+DVD", "SACD", "Compact Disc")

func foldSet(names ...string) map[string]struct{} {
	c := cases.Fold()
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[c.String(n)] = struct{}{}
	}
	return set
}

// IsCD reports whether any of formats names a compact disc.
//
// Names are compared whole and case-insensitively, so "Minidisc" or "Blu-ray Disc" never match.
func IsCD(formats []models.Format) bool {
	c := cases.Fold()
	for _, f := range formats {
		if _, ok := cdFormats[c.String(strings.TrimSpace(f.Name))]; ok {
			return true
		}
	}
	return false
}

// FilterCDs returns the releases whose formats include a CD, preserving order.
func FilterCDs(releases []models.CollectionRelease) []models.CollectionRelease {
	out := make([]models.CollectionRelease, 0, len(releases))
	for _, r := range releases {
		if IsCD(r.BasicInformation.Formats) {
			out = append(out, r)
		}
	}
	return out
}

// CollectionOpts is the caller-side paging policy of [CollectionEngine.FetchAll].
type CollectionOpts struct {
	PerPage   int           // Page size requested from Discogs (max 100)
	MaxPages  int           // Upper bound on pages fetched
	PageDelay time.Duration // Minimum spacing between page requests
}

// CollectionEngine reads the CD subset of a user's collection.
type CollectionEngine struct {
	discogs  CollectionSource
	profiles ProfileStore
	opts     CollectionOpts
	logger   *log.Logger
}

// NewCollectionEngine creates an engine. PerPage and MaxPages default to 100 and 10; a zero PageDelay disables throttling.
func NewCollectionEngine(discogs CollectionSource, profiles ProfileStore, opts CollectionOpts, logger *log.Logger) *CollectionEngine {
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CollectionEngine{discogs: discogs, profiles: profiles, opts: opts, logger: logger}
}

// FetchPage returns one page of userID's collection filtered to CDs.
//
// The collection value is fetched on a best-effort basis and left nil on failure.
// A user without a stored credential gets [shared.ErrNotConnected].
func (e *CollectionEngine) FetchPage(ctx context.Context, userID string, opts services.CollectionOptions) (*models.CollectionResult, error) {
	cred, err := credentialFor(e.profiles, userID)
	if err != nil {
		return nil, err
	}

	page, err := e.discogs.Collection(ctx, cred, opts)
	if err != nil {
		return nil, err
	}

	return &models.CollectionResult{
		Releases:        FilterCDs(page.Releases),
		Pagination:      page.Pagination,
		Value:           e.value(ctx, cred),
		DiscogsUsername: cred.Username,
	}, nil
}

func (e *CollectionEngine) value(ctx context.Context, cred models.AccessCredential) *models.CollectionValue {
	value, err := e.discogs.CollectionValue(ctx, cred)
	if err != nil {
		e.logger.Warn("collection value unavailable", "username", cred.Username, "error", err)
		return nil
	}
	return value
}

// FetchAll walks the collection from page 1 up to MaxPages, spacing requests by PageDelay.
//
// A failure on the first page is returned. Later pages that fail are logged and skipped.
func (e *CollectionEngine) FetchAll(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*models.CollectionResult, error) {
	limit := rate.Inf
	if e.opts.PageDelay > 0 {
		limit = rate.Every(e.opts.PageDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sendProgress(progress, fetchPageUpdate(1, 1))
	first, err := e.FetchPage(ctx, userID, services.CollectionOptions{Page: 1, PerPage: e.opts.PerPage})
	if err != nil {
		return nil, err
	}

	cred, err := credentialFor(e.profiles, userID)
	if err != nil {
		return nil, err
	}

	pages := min(first.Pagination.Pages, e.opts.MaxPages)
	sendProgress(progress, pageFetchedUpdate(1, max(pages, 1), len(first.Releases)))

	for p := 2; p <= pages; p++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		sendProgress(progress, fetchPageUpdate(p, pages))
		page, err := e.discogs.Collection(ctx, cred, services.CollectionOptions{Page: p, PerPage: e.opts.PerPage})
		if err != nil {
			e.logger.Warn("skipping collection page", "page", p, "error", err)
			sendProgress(progress, pageFailedUpdate(p, pages, err))
			continue
		}

		cds := FilterCDs(page.Releases)
		first.Releases = append(first.Releases, cds...)
		sendProgress(progress, pageFetchedUpdate(p, pages, len(cds)))
	}

	return first, nil
}
