// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

const defaultUserEmail = "local@cdx.local"

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("CDX_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "Email of the application user to act as",
			Value:   defaultUserEmail,
			Sources: cli.EnvVars("CDX_USER"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the configured log level (debug, info, warn, error)",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func withOutput(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

// setupCommand initializes config, database, and the local user.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml, run database migrations, and create the local user",
		Action: r.Setup,
	}
}

// userCommand manages application users and their relay API tokens.
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage application users",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user and print its API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name"},
				},
				Action: r.UserCreate,
			},
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  outputFlags(),
				Action: r.UserList,
			},
			{
				Name:   "token",
				Usage:  "Issue a new API token for --user, invalidating the old one",
				Action: r.UserToken,
			},
		},
	}
}

// discogsCommand handles the Discogs connection and catalog lookups.
func discogsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discogs",
		Aliases: []string{"dg"},
		Usage:   "Discogs account and catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Authorize cdx with your Discogs account (opens a browser)",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the Discogs callback",
						Value: authTimeout,
					},
				},
				Action: r.DiscogsConnect,
			},
			{
				Name:   "disconnect",
				Usage:  "Forget the stored Discogs credential",
				Action: r.DiscogsDisconnect,
			},
			{
				Name:   "status",
				Usage:  "Show whether a Discogs account is connected",
				Action: r.DiscogsStatus,
			},
			{
				Name:  "collection",
				Usage: "List the CDs in your collection",
				Flags: withOutput(
					&cli.IntFlag{Name: "page", Usage: "Collection page", Value: 1},
					&cli.IntFlag{Name: "per-page", Usage: "Releases per page (max 100)", Value: 50},
					&cli.StringFlag{Name: "sort", Usage: "Sort key (added, artist, title, year)", Value: "added"},
					&cli.StringFlag{Name: "order", Usage: "Sort order (asc, desc)", Value: "desc"},
					&cli.BoolFlag{Name: "all", Usage: "Fetch every page (capped by collection.max_pages)"},
				),
				Action: r.DiscogsCollection,
			},
			{
				Name:      "search",
				Usage:     "Search the Discogs database for CD releases",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: withOutput(
					&cli.StringFlag{Name: "type", Usage: "Result type", Value: "release"},
					&cli.StringFlag{Name: "format", Usage: "Format filter", Value: "CD"},
					&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
					&cli.IntFlag{Name: "per-page", Usage: "Results per page", Value: 20},
				),
				Action: r.DiscogsSearch,
			},
			{
				Name:      "release",
				Usage:     "Show release details",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.DiscogsRelease,
			},
			{
				Name:      "price",
				Usage:     "Show suggested price and cheapest CD listings for a release",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.DiscogsPrice,
			},
		},
	}
}

// wishlistCommand manages wishlist entries.
func wishlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wishlist",
		Aliases: []string{"wl"},
		Usage:   "Manage your CD wishlist",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a release to the wishlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "release-id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
				},
				Action: r.WishlistAdd,
			},
			{
				Name:   "list",
				Usage:  "List wishlist items, newest first",
				Flags:  outputFlags(),
				Action: r.WishlistList,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a wishlist item",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.WishlistRemove,
			},
		},
	}
}

// alertCommand manages price alerts on wishlist items.
func alertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "alert",
		Usage: "Manage price alerts on wishlist items",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Alert when a wishlist item is listed at or below a price",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "wishlist-id"},
					&cli.StringArg{Name: "target-price"},
				},
				Action: r.AlertSet,
			},
			{
				Name:   "list",
				Usage:  "List price alerts",
				Flags:  outputFlags(),
				Action: r.AlertList,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove the alert of a wishlist item",
				Arguments: []cli.Argument{&cli.StringArg{Name: "wishlist-id"}},
				Action:    r.AlertRemove,
			},
			{
				Name:  "refresh",
				Usage: "Re-check marketplace prices for every alert",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent price checks (max 10)", Value: 3},
					&cli.FloatFlag{Name: "rate", Usage: "Price checks per second", Value: 2},
				},
				Action: r.AlertRefresh,
			},
		},
	}
}

// analyzeCommand requests an AI analysis of the CD collection.
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Ask the AI gateway to analyze your CD collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Analysis type (overview, value, taste)",
				Value:   "overview",
			},
		},
		Action: r.Analyze,
	}
}

// exportCommand writes the collection and wishlist to disk.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export your CD collection and wishlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: cdx_export_{epoch})",
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download the newest release's cover image (markdown only)",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the JSON relay.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP relay for browser clients",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default: server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default: server.port)"},
			&cli.DurationFlag{Name: "alert-interval", Usage: "Re-check every user's price alerts this often (0 disables)"},
		},
		Action: r.Serve,
	}
}
