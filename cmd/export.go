package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
)

// Export writes --user's CD collection and wishlist in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	engine := tasks.NewExportEngine(r.collectionEngine(client), r.wishlist, shared.WithLogger(r.logger, "engine", "export"))

	progress, wait := r.follow()
	result, err := engine.Export(ctx, user.ID(), tasks.ExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		Cover:     cmd.Bool("cover"),
		UserAgent: r.config.Discogs.UserAgent,
	}, progress)
	wait()
	if err != nil {
		return err
	}

	manifest := result.Manifest
	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	if manifest.DiscogsUsername != "" {
		r.writePlain("Discogs user: %s\n", manifest.DiscogsUsername)
	}
	r.writePlain("CDs: %d\n", manifest.Releases)
	r.writePlain("Wishlist items: %d\n", manifest.WishlistItems)
	r.writePlain("Files:\n")
	for _, f := range manifest.Files {
		r.writePlain("  - %s\n", f)
	}
	return r.writePlain("%s\n", r.styles.OK(fmt.Sprintf("Manifest written to %s", result.ManifestPath)))
}
