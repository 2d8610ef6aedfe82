package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
	"github.com/desertthunder/cdx/internal/ui"
)

// AlertSet records a target price on a wishlist item.
func (r *Runner) AlertSet(ctx context.Context, cmd *cli.Command) error {
	wishlistID := cmd.StringArg("wishlist-id")
	if wishlistID == "" {
		return fmt.Errorf("%w: wishlist-id", shared.ErrMissingArgument)
	}
	target, err := strconv.ParseFloat(cmd.StringArg("target-price"), 64)
	if err != nil {
		return fmt.Errorf("%w: target-price must be a number", shared.ErrInvalidArgument)
	}

	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	alert, err := r.priceEngine(client).SetAlert(ctx, user.ID(), wishlistID, target)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", r.styles.OK("Price alert set successfully"))
	r.writePlain("Target: %s\n", ui.Money(alert.TargetPrice, alert.Currency))
	r.writePlain("Current lowest: %s\n", ui.MoneyPtr(alert.LastMinPrice, alert.Currency))
	if alert.Triggered() {
		r.writePlain("%s\n", r.styles.OK("Already at or below your target!"))
	}
	return nil
}

// AlertList prints --user's alerts.
func (r *Runner) AlertList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}

	alerts, err := r.alerts.ListByUser(user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if alerts == nil {
			alerts = []*models.PriceAlert{}
		}
		return r.writeJSON(alerts, cmd.Bool("pretty"))
	}
	if len(alerts) == 0 {
		return r.writePlain("%s\n", r.styles.Help("No price alerts. Set one with 'cdx alert set <wishlist-id> <price>'."))
	}
	return r.writePlain("%s\n", ui.AlertTable(alerts))
}

// AlertRemove deletes the alert of a wishlist item.
func (r *Runner) AlertRemove(ctx context.Context, cmd *cli.Command) error {
	wishlistID := cmd.StringArg("wishlist-id")
	if wishlistID == "" {
		return fmt.Errorf("%w: wishlist-id", shared.ErrMissingArgument)
	}
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}

	if err := r.alerts.Delete(user.ID(), wishlistID); err != nil {
		return err
	}
	return r.writePlain("%s\n", r.styles.OK("Alert removed"))
}

// AlertRefresh re-checks the marketplace for every alert of --user.
func (r *Runner) AlertRefresh(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	progress, wait := r.follow()
	summary, err := r.priceEngine(client).RefreshAlerts(ctx, user.ID(), tasks.AlertRefreshOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}, progress)
	wait()
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Price Check Complete")
	r.writePlain("Checked: %d/%d\n", summary.Checked, summary.Total)
	r.writePlain("Triggered: %d\n", summary.Triggered)
	if summary.Failed > 0 {
		r.writePlain("%s\n", r.styles.Warn(fmt.Sprintf("%d checks failed; their last known price was kept", summary.Failed)))
	}

	for _, res := range summary.Results {
		if res.Error == nil && res.Alert.Triggered() {
			r.writePlain("%s\n", r.styles.OK(fmt.Sprintf("Release %d is listed at %s (target %s)",
				res.Alert.DiscogsReleaseID,
				ui.MoneyPtr(res.Alert.LastMinPrice, res.Alert.Currency),
				ui.Money(res.Alert.TargetPrice, res.Alert.Currency))))
		}
	}
	return nil
}
