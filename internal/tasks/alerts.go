package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

// AlertRefreshOpts configures [PriceEngine.RefreshAlerts].
type AlertRefreshOpts struct {
	NumWorkers int     // Concurrent workers (default: 3, max: 10)
	RateLimit  float64 // Price checks per second (default: 2)
}

// AlertRefreshResult is the outcome of re-checking one alert.
type AlertRefreshResult struct {
	Alert *models.PriceAlert
	Error error
}

// AlertRefreshSummary aggregates a refresh run.
type AlertRefreshSummary struct {
	Total     int
	Checked   int
	Triggered int
	Failed    int
	Results   []AlertRefreshResult
}

// RefreshAlerts re-checks every alert of userID and stores the new minimum price.
//
// Checks run on a worker pool behind a shared rate limiter. A failed listings lookup
// leaves the stored minimum untouched and is reported in the summary.
func (e *PriceEngine) RefreshAlerts(ctx context.Context, userID string, opts AlertRefreshOpts, progress chan<- ProgressUpdate) (*AlertRefreshSummary, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	alerts, err := e.alerts.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summary := &AlertRefreshSummary{
		Total:   len(alerts),
		Results: make([]AlertRefreshResult, 0, len(alerts)),
	}
	if len(alerts) == 0 {
		return summary, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan *models.PriceAlert, len(alerts))
	results := make(chan AlertRefreshResult, len(alerts))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.refreshWorker(ctx, &wg, userID, limiter, jobs, results)
	}

	for _, a := range alerts {
		jobs <- a
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		summary.Results = append(summary.Results, res)
		if res.Error != nil {
			summary.Failed++
		} else {
			summary.Checked++
			if res.Alert.Triggered() {
				summary.Triggered++
			}
		}
		sendProgress(progress, alertCheckedUpdate(len(summary.Results), summary.Total, res))
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *PriceEngine) refreshWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	userID string,
	limiter *rate.Limiter,
	jobs <-chan *models.PriceAlert,
	results chan<- AlertRefreshResult,
) {
	defer wg.Done()

	for alert := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- AlertRefreshResult{Alert: alert, Error: err}
			continue
		}
		results <- e.refreshOne(ctx, userID, alert)
	}
}

func (e *PriceEngine) refreshOne(ctx context.Context, userID string, alert *models.PriceAlert) AlertRefreshResult {
	check, listed, err := e.check(ctx, userID, alert.DiscogsReleaseID)
	if err != nil {
		return AlertRefreshResult{Alert: alert, Error: err}
	}
	if !listed {
		return AlertRefreshResult{Alert: alert, Error: fmt.Errorf("%w: listings unavailable for release %d", shared.ErrUpstream, alert.DiscogsReleaseID)}
	}

	checkedAt := e.now()
	alert.LastMinPrice = check.MinPrice
	alert.LastCheckedAt = &checkedAt
	if err := e.alerts.Upsert(alert); err != nil {
		return AlertRefreshResult{Alert: alert, Error: err}
	}
	return AlertRefreshResult{Alert: alert}
}
