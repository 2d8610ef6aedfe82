package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/ui"
)

// WishlistAdd looks up a release and stores it on --user's wishlist.
func (r *Runner) WishlistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := releaseIDArg(cmd, "release-id")
	if err != nil {
		return err
	}
	user, err := r.currentUser(cmd)
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

	item := wishlistItemFromRelease(user.ID(), detail)
	item.SetNotes(cmd.String("notes"))

	if err := r.wishlist.Create(item); err != nil {
		if errors.Is(err, shared.ErrAlreadyInWishlist) {
			return fmt.Errorf("%s - %s is already on your wishlist: %w", item.Artist(), item.Title(), err)
		}
		return err
	}

	r.logger.Info("wishlist item added", "id", item.ID(), "release_id", id)
	return r.writePlain("%s\n", r.styles.OK(fmt.Sprintf("Added %s - %s (%s)", item.Artist(), item.Title(), item.ID())))
}

// wishlistItemFromRelease copies the displayed fields of a release into a new item.
func wishlistItemFromRelease(userID string, detail *models.ReleaseDetail) *models.WishlistItem {
	item := models.NewWishlistItem(userID, detail.ID, detail.Title, detail.ArtistsSort)
	if detail.Year > 0 {
		year := detail.Year
		item.SetYear(&year)
	}

	// Release images carry no thumbnail, so the primary image serves as both.
	var cover string
	for _, img := range detail.Images {
		if cover == "" || img.Type == "primary" {
			cover = img.URI
		}
	}
	item.SetImages(cover, cover)
	item.SetGenres(detail.Genres)

	labels := make([]string, 0, len(detail.Labels))
	for _, l := range detail.Labels {
		labels = append(labels, l.Name)
	}
	item.SetLabels(labels)
	return item
}

// WishlistList prints --user's wishlist with any alert targets.
func (r *Runner) WishlistList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}

	items, err := r.wishlist.ListByUser(user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if items == nil {
			items = []*models.WishlistItem{}
		}
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		return r.writePlain("%s\n", r.styles.Help("Your wishlist is empty. Add releases with 'cdx wishlist add <release-id>'."))
	}

	alerts, err := r.alerts.ListByUser(user.ID())
	if err != nil {
		return err
	}
	byItem := make(map[string]*models.PriceAlert, len(alerts))
	for _, a := range alerts {
		byItem[a.WishlistID] = a
	}

	return r.writePlain("%s\n", ui.WishlistTable(items, byItem))
}

// WishlistRemove deletes one of --user's wishlist items.
func (r *Runner) WishlistRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}

	if err := r.wishlist.Delete(user.ID(), id); err != nil {
		return err
	}
	return r.writePlain("%s\n", r.styles.OK("Removed "+id))
}
