package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

// Setup creates the config file if missing, migrates the database, and ensures the --user account exists.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", r.configPath)
			if config, err := shared.Load(r.configPath); err == nil {
				r.config = config
			} else {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.openDatabase(); err != nil {
		return err
	}

	email := cmd.String("user")
	user, err := r.users.GetByEmail(email)
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		user = models.NewUser(0, email, "Local")
		if err := r.users.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		r.logger.Info("user created", "email", email)
	case err != nil:
		return err
	}

	r.writePlain("%s\n", r.styles.OK("Setup complete for database: "+r.config.Database.Path))
	r.writePlain("User: %s\n", user.Email())
	r.writePlain("API token: %s\n\n", user.APIToken())

	if err := r.config.Validate(); err != nil {
		r.writePlain("%s\n", r.styles.Warn("Discogs consumer credentials are not configured."))
		r.writePlain("%s\n", r.styles.Help("Set discogs.consumer_key and discogs.consumer_secret in "+r.configPath+
			" or DISCOGS_CONSUMER_KEY / DISCOGS_CONSUMER_SECRET."))
		return nil
	}
	r.writePlain("Next: run 'cdx discogs connect'\n")
	return nil
}
