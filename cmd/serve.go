package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playdeck/internal/repositories"
	"github.com/desertthunder/playdeck/internal/server"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Serve runs the dashboard JSON API until interrupted.
//
// Every browser session signs in through /login and gets its own Spotify client.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.oauth == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrServiceUnavailable, r.configFile())
	}

	opts, err := dashboardOpts(r.config)
	if err != nil {
		return err
	}
	profiles, err := r.profileRepository()
	if err != nil {
		return err
	}
	channels, err := r.channelRepository()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	base := r.oauth
	app := server.NewApp(server.Options{
		Auth: base,
		NewClient: func(token *oauth2.Token) (services.Service, error) {
			client, err := base.ForToken(token)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Profiles:  profiles,
		Channels:  channels,
		States:    repositories.NewUIStateRepository(db),
		StateUser: ui.LocalUser,
		Dashboard: opts,
		Logger:    shared.WithLogger(r.logger, "component", "server"),
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	r.writePlain("→ Serving dashboard API on http://%s (sign in at /login)\n", addr)
	return server.Serve(ctx, addr, app.Router(), r.logger)
}
