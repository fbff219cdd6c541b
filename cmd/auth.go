package main

import (
	"context"

	"github.com/desertthunder/filmrec/internal/models"
	"github.com/urfave/cli/v3"
)

func credentials(cmd *cli.Command) models.Credentials {
	return models.Credentials{Username: cmd.String("username"), Password: cmd.String("password")}.Trimmed()
}

// AuthLogin logs in and stores the session for later commands.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := credentials(cmd)
	r.logger.Info("logging in", "username", creds.Username)

	session, err := r.app.Login(ctx, creds)
	if err != nil {
		return err
	}

	r.logger.Info("authentication successful", "user", session.ID)
	return r.writePlain("✓ Logged in as %s (%d ratings)\n", session.Username, r.app.Ratings.Len())
}

// AuthSignup creates an account, then behaves like [Runner.AuthLogin].
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	creds := credentials(cmd)
	r.logger.Info("signing up", "username", creds.Username)

	session, err := r.app.Signup(ctx, creds)
	if err != nil {
		return err
	}

	r.logger.Info("account created", "user", session.ID)
	r.writePlain("✓ Welcome, %s\n", session.Username)
	return r.writePlain("Rate a few movies with 'filmrec rate <id> <1-5>' to get recommendations.\n")
}

// AuthLogout forgets the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	session := r.start(ctx)
	if !session.Authenticated() {
		return r.writePlain("Not logged in\n")
	}

	if err := r.app.Logout(ctx); err != nil {
		return err
	}

	r.logger.Info("logged out", "user", session.ID)
	return r.writePlain("✓ Logged out %s\n", session.Username)
}

type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Username      string `json:"username,omitempty"`
	Ratings       int    `json:"ratings"`
	API           string `json:"api"`
	Breaker       string `json:"breaker"`
}

// AuthStatus reports the stored session and the state of the API client.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	session := r.start(ctx)
	status := authStatus{
		Authenticated: session.Authenticated(),
		UserID:        session.ID,
		Username:      session.Username,
		Ratings:       r.app.Ratings.Len(),
		API:           r.api.BaseURL(),
		Breaker:       r.api.BreakerState(),
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("API: %s (breaker %s)\n", status.API, status.Breaker)
	if !status.Authenticated {
		return r.writePlain("Authentication: ✗ Not logged in\n")
	}
	r.writePlain("Authentication: ✓ %s (id %s)\n", status.Username, status.UserID)
	return r.writePlain("Ratings: %d\n", status.Ratings)
}
