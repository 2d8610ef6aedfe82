package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/cdx/internal/pending"
	"github.com/desertthunder/cdx/internal/server"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
)

// Serve runs the relay until interrupted.
//
// Temporary credentials live in Redis when redis.url is set, otherwise in memory.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.openDatabase(); err != nil {
		return err
	}
	client, err := r.discogsClient()
	if err != nil {
		return err
	}

	checks := map[string]server.Check{
		"database": func(ctx context.Context) error { return r.db.PingContext(ctx) },
	}

	var store pending.Store
	if url := r.config.Redis.URL; url != "" {
		redisStore, err := pending.Connect(ctx, url, r.config.OAuth.PendingTTL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		checks["redis"] = redisStore.Ping
		store = redisStore
		r.logger.Info("pending credentials stored in redis")
	} else {
		memStore := pending.NewMemoryStore(r.config.OAuth.PendingTTL)
		defer memStore.Stop()
		store = memStore
	}

	handler := r.relayHandler(client, store, checks)

	host := r.config.Server.Host
	if h := cmd.String("host"); h != "" {
		host = h
	}
	port := r.config.Server.Port
	if p := cmd.Int("port"); p > 0 {
		port = p
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, addr, handler, shared.WithLogger(r.logger, "component", "relay"))
	})
	if interval := cmd.Duration("alert-interval"); interval > 0 {
		prices := r.priceEngine(client)
		g.Go(func() error {
			r.refreshLoop(gctx, prices, interval)
			return nil
		})
	}
	return g.Wait()
}

// refreshLoop re-checks every user's alerts each interval until ctx ends.
func (r *Runner) refreshLoop(ctx context.Context, prices *tasks.PriceEngine, interval time.Duration) {
	logger := shared.WithLogger(r.logger, "component", "alerts")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		users, err := r.users.List(nil)
		if err != nil {
			logger.Error("failed to list users", "error", err)
			continue
		}
		for _, user := range users {
			summary, err := prices.RefreshAlerts(ctx, user.ID(), tasks.AlertRefreshOpts{}, nil)
			if err != nil {
				logger.Warn("alert refresh failed", "user_id", user.ID(), "error", err)
				continue
			}
			if summary.Total > 0 {
				logger.Info("alerts refreshed", "user_id", user.ID(),
					"checked", summary.Checked, "triggered", summary.Triggered, "failed", summary.Failed)
			}
		}
	}
}

// relayHandler assembles the router with every relay route and the health endpoint.
func (r *Runner) relayHandler(client *services.DiscogsClient, store pending.Store, checks map[string]server.Check) *server.BasicRouter {
	logger := shared.WithLogger(r.logger, "component", "relay")

	collection := r.collectionEngine(client)
	relay := server.NewRelay(server.RelayDeps{
		Users:       r.users,
		Handshake:   services.NewHandshake(client, store),
		Releases:    client,
		Profiles:    r.profiles,
		Wishlist:    r.wishlist,
		Alerts:      r.alerts,
		Collection:  collection,
		Prices:      r.priceEngine(client),
		Analyzer:    tasks.NewAnalysisEngine(r.gateway(), shared.WithLogger(r.logger, "engine", "analysis")),
		CallbackURL: r.config.Discogs.CallbackURL,
		Logger:      logger,
	})

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger), server.Recoverer(), server.CORS())
	router.Handle(http.MethodGet, "/health", server.Health(checks))
	relay.Register(router)
	return router
}
