package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
)

// Analyze fetches the whole CD collection and prints the gateway's analysis.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	kind, err := tasks.ParseAnalysisType(cmd.String("type"))
	if err != nil {
		return err
	}

	gateway := r.gateway()
	if gateway == nil {
		return fmt.Errorf("%w: set gateway.api_key or CDX_GATEWAY_API_KEY", shared.ErrMissingCredentials)
	}

	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	progress, wait := r.follow()
	collection, err := r.collectionEngine(client).FetchAll(ctx, user.ID(), progress)
	if err != nil {
		wait()
		return err
	}
	if len(collection.Releases) == 0 {
		wait()
		return r.writePlain("%s\n", r.styles.Warn("No CDs found in your collection."))
	}

	engine := tasks.NewAnalysisEngine(gateway, shared.WithLogger(r.logger, "engine", "analysis"))
	analysis, err := engine.Analyze(ctx, collection.Releases, kind, progress)
	wait()
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Collection Analysis (%s)", kind))
	return r.writePlain("%s\n", analysis)
}
