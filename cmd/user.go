package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/ui"
)

// UserCreate registers a user and prints its API token.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.openDatabase(); err != nil {
		return err
	}

	user := models.NewUser(0, cmd.String("email"), cmd.String("name"))
	if err := r.users.Create(user); err != nil {
		return err
	}

	r.logger.Info("user created", "id", user.ID(), "email", user.Email())
	r.writePlain("%s\n", r.styles.OK("User created: "+user.Email()))
	return r.writePlain("API token: %s\n", user.APIToken())
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserList prints every user without their tokens.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openDatabase(); err != nil {
		return err
	}

	users, err := r.users.List(nil)
	if err != nil {
		return err
	}

	views := make([]userView, 0, len(users))
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID(), Email: u.Email(), Name: u.Name()})
		rows = append(rows, []string{u.ID(), u.Email(), u.Name()})
	}

	if cmd.Bool("json") {
		return r.writeJSON(views, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", ui.Table([]string{"ID", "Email", "Name"}, rows))
}

// UserToken rotates the API token of --user.
func (r *Runner) UserToken(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(cmd)
	if err != nil {
		return err
	}

	token, err := r.users.RotateToken(user.ID())
	if err != nil {
		return fmt.Errorf("failed to rotate token: %w", err)
	}

	r.writePlain("%s\n", r.styles.OK("New API token issued for "+user.Email()))
	return r.writePlain("API token: %s\n", token)
}
