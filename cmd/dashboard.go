package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// dashboardOpts builds the section sizes from the [dashboard] config section.
func dashboardOpts(config *shared.Config) (tasks.LoadOpts, error) {
	timeRange, err := models.ParseTimeRange(config.Dashboard.TimeRange)
	if err != nil {
		return tasks.LoadOpts{}, fmt.Errorf("%w: dashboard.time_range: %v", shared.ErrInvalidConfig, err)
	}
	return tasks.LoadOpts{
		TopLimit:    config.Dashboard.TopLimit,
		RecentLimit: config.Dashboard.RecentLimit,
		TimeRange:   timeRange,
	}, nil
}

// reportProgress prints updates from the returned channel until it is closed. wait blocks until the last one is printed.
func (r *Runner) reportProgress(buffer int) (progress chan tasks.ProgressUpdate, wait func()) {
	progress = make(chan tasks.ProgressUpdate, buffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.ExportPlaylist:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}

// Dashboard loads and prints every dashboard section.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	opts, err := dashboardOpts(r.config)
	if err != nil {
		return err
	}
	if n := cmd.Int("top"); n > 0 {
		opts.TopLimit = n
	}
	if n := cmd.Int("recent"); n > 0 {
		opts.RecentLimit = n
	}
	if s := cmd.String("range"); s != "" {
		if opts.TimeRange, err = models.ParseTimeRange(s); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}

	progress, wait := r.reportProgress(8)
	dash, err := r.engine.Load(ctx, progress, opts)
	wait()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(dash, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Now Playing")
	r.writeNowPlaying(dash.NowPlaying)
	r.writePlain("\n")

	r.writePlainHeader("Top Tracks")
	r.writeTracks(fmt.Sprintf("Top tracks (%s)", opts.TimeRange), dash.TopTracks)
	r.writePlain("\n")

	r.writePlainHeader("Recently Played")
	r.writeTracks("Recently played", dash.Recent)
	r.writePlain("\n")

	r.writePlainHeader("Playlists")
	return r.writePlaylists(dash.Playlists)
}
