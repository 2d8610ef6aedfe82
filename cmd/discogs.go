package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/pending"
	"github.com/desertthunder/cdx/internal/server"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/ui"
)

const authTimeout = 2 * time.Minute

// DiscogsConnect runs the three-legged handshake against a temporary callback server on localhost.
func (r *Runner) DiscogsConnect(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	store := pending.NewMemoryStore(r.config.OAuth.PendingTTL)
	defer store.Stop()

	cred, err := r.doOAuth(ctx, services.NewHandshake(client, store), user.ID(), cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := r.profiles.SaveCredential(user.ID(), *cred); err != nil {
		return err
	}

	r.writePlainln("%s", r.styles.OK("Connected to Discogs as "+cred.Username))
	return r.writePlain("You can now use: cdx discogs collection\n")
}

func (r *Runner) doOAuth(ctx context.Context, flow server.HandshakeFlow, owner string, timeout time.Duration) (*models.AccessCredential, error) {
	oauthHandler := server.NewOAuthHandler(flow, owner)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	callbackURL := r.config.Discogs.CallbackURL
	if callbackURL == "" {
		callbackURL = "http://" + serverAddr + "/callback"
	}

	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	tmp, err := flow.Begin(ctx, owner, callbackURL)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain request token: %w", err)
	}

	r.writePlain("→ Opening browser for Discogs authorization...\n")
	if err := shared.OpenBrowser(tmp.AuthorizeURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("%s", r.styles.Warn("Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", tmp.AuthorizeURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if errors.Is(result.Error(), shared.ErrAuthorizationDenied) {
		return nil, fmt.Errorf("%w: nothing was stored", shared.ErrAuthorizationDenied)
	}
	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	return result.Credential, nil
}

// DiscogsDisconnect clears the stored credential of --user.
func (r *Runner) DiscogsDisconnect(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	if err := r.profiles.Disconnect(user.ID()); err != nil {
		return err
	}
	return r.writePlain("%s\n", r.styles.OK("Discogs disconnected"))
}

// DiscogsStatus reports whether --user has a Discogs connection.
func (r *Runner) DiscogsStatus(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	profile, err := r.profiles.Get(user.ID())
	if err != nil {
		return err
	}

	if !profile.Connected() {
		r.writePlain("%s\n", r.styles.Warn("Not connected"))
		return r.writePlain("%s\n", r.styles.Help("Run 'cdx discogs connect' to link your Discogs account."))
	}
	return r.writePlain("%s\n", r.styles.OK("Connected as "+*profile.DiscogsUsername))
}

// DiscogsCollection lists the CDs of --user's collection, one page or all pages.
func (r *Runner) DiscogsCollection(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}
	engine := r.collectionEngine(client)

	var result *models.CollectionResult
	if cmd.Bool("all") {
		progress, wait := r.follow()
		if cmd.Bool("json") {
			progress = nil
		}
		result, err = engine.FetchAll(ctx, user.ID(), progress)
		wait()
	} else {
		result, err = engine.FetchPage(ctx, user.ID(), services.CollectionOptions{
			Page:      cmd.Int("page"),
			PerPage:   cmd.Int("per-page"),
			Sort:      cmd.String("sort"),
			SortOrder: cmd.String("order"),
		})
	}
	if errors.Is(err, shared.ErrNotConnected) {
		return fmt.Errorf("%w: run 'cdx discogs connect' first", err)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s's CDs", result.DiscogsUsername))
	r.writePlain("%s\n", ui.ReleaseTable(result.Releases))
	r.writePlain("Page %d of %d (%d releases in collection)\n", result.Pagination.Page, result.Pagination.Pages, result.Pagination.Items)
	if v := result.Value; v != nil {
		r.writePlain("Collection value: min %s / median %s / max %s\n", v.Minimum, v.Median, v.Maximum)
	}
	return nil
}

// DiscogsSearch searches the database. Queries under two characters print nothing.
func (r *Runner) DiscogsSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if len([]rune(query)) < 2 {
		return fmt.Errorf("%w: query must be at least 2 characters", shared.ErrMissingArgument)
	}

	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	page, err := client.Search(ctx, models.SearchQuery{
		Query:   query,
		Type:    cmd.String("type"),
		Format:  cmd.String("format"),
		Page:    cmd.Int("page"),
		PerPage: cmd.Int("per-page"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}
	r.writePlain("%s\n", ui.SearchTable(page.Results))
	return r.writePlain("Page %d of %d (%d results)\n", page.Pagination.Page, page.Pagination.Pages, page.Pagination.Items)
}

// DiscogsRelease prints release details.
func (r *Runner) DiscogsRelease(ctx context.Context, cmd *cli.Command) error {
	id, err := releaseIDArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	detail, err := client.Release(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s - %s", detail.ArtistsSort, detail.Title))
	if detail.Year > 0 {
		r.writePlain("Year: %d\n", detail.Year)
	}
	if detail.Country != "" {
		r.writePlain("Country: %s\n", detail.Country)
	}
	if len(detail.Genres) > 0 {
		r.writePlain("Genres: %s\n", strings.Join(slices.Concat(detail.Genres, detail.Styles), ", "))
	}
	for _, l := range detail.Labels {
		r.writePlain("Label: %s %s\n", l.Name, l.Catno)
	}
	if len(detail.Tracklist) > 0 {
		r.writePlainln("Tracklist:")
		for _, t := range detail.Tracklist {
			r.writePlain("  %-4s %s %s\n", t.Position, t.Title, t.Duration)
		}
	}
	if detail.LowestPrice != nil {
		r.writePlain("\nLowest price: %.2f (%d for sale)\n", *detail.LowestPrice, detail.NumForSale)
	}
	return nil
}

// DiscogsPrice prints the suggested price and cheapest listings of a release.
func (r *Runner) DiscogsPrice(ctx context.Context, cmd *cli.Command) error {
	id, err := releaseIDArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.openDatabase(); err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	userID := ""
	if user, err := r.currentUser(cmd); err == nil {
		userID = user.ID()
	}

	check, err := r.priceEngine(client).Check(ctx, userID, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(check, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Release %d", check.ReleaseID))
	r.writePlain("Suggested: %s\n", ui.MoneyPtr(check.SuggestedPrice, check.Currency))
	r.writePlain("Lowest CD listing: %s\n", ui.MoneyPtr(check.MinPrice, check.Currency))
	r.writePlain("For sale: %d\n", check.ForSaleCount)
	if len(check.Listings) > 0 {
		rows := make([][]string, 0, len(check.Listings))
		for _, l := range check.Listings {
			rows = append(rows, []string{ui.Money(l.Price, l.Currency), l.Condition, l.SleeveCondition, l.ShipsFrom})
		}
		r.writePlain("%s\n", ui.Table([]string{"Price", "Media", "Sleeve", "Ships from"}, rows))
	}
	return nil
}

func releaseIDArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}
