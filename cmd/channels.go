package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// ChannelAdd saves a channel to the catalog.
func (r *Runner) ChannelAdd(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.channelRepository()
	if err != nil {
		return err
	}

	channel := models.NewChannel(cmd.StringArg("name"), models.ChannelKind(cmd.String("type")), cmd.String("url"))
	channel.SetThumbnail(cmd.String("thumbnail"))
	channel.SetFeatured(cmd.Bool("featured"))
	if err := repo.Create(channel); err != nil {
		return err
	}

	r.logger.Info("channel added", "id", channel.ID(), "name", channel.Name())
	return r.writePlain("✓ Added %s channel %s (%s)\n", channel.Kind(), channel.Name(), channel.ID())
}

// ChannelList prints the catalog, optionally narrowed by type or featured flag.
func (r *Runner) ChannelList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.channelRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{"kind": cmd.String("type")}
	if cmd.Bool("featured") {
		criteria["featured"] = true
	}

	channels, err := repo.List(criteria)
	if err != nil {
		return err
	}
	return r.writeChannels(channels, cmd)
}

// ChannelSearch finds channels by name.
func (r *Runner) ChannelSearch(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if term == "" {
		return fmt.Errorf("%w: search term", shared.ErrMissingArgument)
	}

	repo, err := r.channelRepository()
	if err != nil {
		return err
	}

	channels, err := repo.Search(term)
	if err != nil {
		return err
	}
	return r.writeChannels(channels, cmd)
}

func (r *Runner) writeChannels(channels []*models.Channel, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(channels, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d channels:\n\n", len(channels))
	for i, c := range channels {
		star := ""
		if c.Featured() {
			star = " ★"
		}
		r.writePlain("%d. %s%s\n", i+1, c.Name(), star)
		r.writePlain("   ID: %s\n", c.ID())
		r.writePlain("   Type: %s\n", c.Kind())
		r.writePlain("   URL: %s\n\n", c.URL())
	}
	return nil
}

// ChannelRemove soft-deletes a channel.
func (r *Runner) ChannelRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}

	repo, err := r.channelRepository()
	if err != nil {
		return err
	}
	if err := repo.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed channel %s\n", id)
}
