package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("PLAYDECK_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "err", err)
		}
	}
	if err := shared.ApplyEnv(config, ".env"); err != nil {
		logger.Warn("failed to apply environment overrides", "err", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Logger:     logger,
	})

	if svc, err := newSpotifyService(config, logger); err == nil {
		runner.SetSpotify(svc)
		if token := config.Credentials.Spotify.Token(); token != nil {
			if err := svc.SetToken(context.Background(), token); err != nil {
				logger.Warn("failed to restore spotify token", "err", err)
			}
			svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
				if err := runner.saveTokens(t); err != nil {
					logger.Warn("failed to persist refreshed token", "err", err)
				}
			})
		}
	} else {
		logger.Debug("spotify service not configured", "err", err)
	}

	app := &cli.Command{
		Name:     "playdeck",
		Usage:    "Personal Spotify dashboard for the terminal and the browser",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatal("application error", "err", err)
	}
}

// newSpotifyService builds the Spotify client from config, applying the [client] section.
func newSpotifyService(config *shared.Config, logger *log.Logger) (*services.SpotifyService, error) {
	return services.NewSpotifyService(config.Credentials.Spotify.Map(),
		services.WithLogger(logger),
		services.WithRateLimit(config.Client.RateLimit),
		services.WithTimeout(config.Client.RequestTimeout()),
	)
}
