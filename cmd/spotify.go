package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/playdeck/internal/formatter"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SpotifyNow prints the currently playing track.
func (r *Runner) SpotifyNow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	current := r.spotify.CurrentlyPlaying(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(current, cmd.Bool("pretty"))
	}
	return r.writeNowPlaying(current)
}

func (r *Runner) writeNowPlaying(current *models.CurrentlyPlaying) error {
	if current == nil || current.Track == nil {
		return r.writePlain("Nothing playing\n")
	}

	status := "⏸ Paused"
	if current.IsPlaying {
		status = "▶ Playing"
	}
	r.writePlain("%s: %s\n", status, formatter.TrackLine(*current.Track))
	if current.Track.Album != "" {
		r.writePlain("   Album: %s\n", current.Track.Album)
	}
	return r.writePlain("   %s\n", formatter.FormatProgress(current.ProgressMS, current.Track.DurationMS))
}

// SpotifyRecent lists recently played tracks, most recent first.
func (r *Runner) SpotifyRecent(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	tracks := r.spotify.RecentlyPlayed(ctx, cmd.Int("limit"))
	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	return r.writeTracks("Recently played", tracks)
}

// SpotifyTop lists the user's top tracks for a time range.
func (r *Runner) SpotifyTop(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	timeRange, err := models.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	tracks := r.spotify.TopTracks(ctx, cmd.Int("limit"), timeRange)
	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	return r.writeTracks(fmt.Sprintf("Top tracks (%s)", timeRange), tracks)
}

func (r *Runner) writeTracks(title string, tracks []models.Track) error {
	if len(tracks) == 0 {
		return r.writePlain("%s: no tracks\n", title)
	}

	r.writePlain("%s (%d):\n\n", title, len(tracks))
	for i, t := range tracks {
		r.writePlain("%2d. %s [%s]\n", i+1, formatter.TrackLine(t), formatter.FormatDuration(t.DurationMS))
		r.writePlain("    %s\n", t.URI)
	}
	return nil
}

// SpotifyPlaylists lists Spotify playlists with optional limit.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if err := r.requireSpotify(); err != nil {
		return err
	}

	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists := r.spotify.UserPlaylists(ctx)
	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if save {
		saveFile := "spotify_playlists.json"
		data, err := shared.MarshalJSON(playlists, true)
		if err != nil {
			return fmt.Errorf("failed to marshal playlists: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save playlists", "err", err)
		} else {
			r.logger.Info("playlists saved", "file", saveFile)
		}
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}
	return r.writePlaylists(playlists)
}

func (r *Runner) writePlaylists(playlists []models.Playlist) error {
	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %s\n", formatter.FormatCount(p.TrackCount))
		r.writePlain("\n")
	}
	return nil
}

// SpotifyTracks lists every track of a playlist or exports them in the requested format.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	format := cmd.String("format")
	output := cmd.String("output")

	if playlistID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}
	if err := r.requireSpotify(); err != nil {
		return err
	}

	r.logger.Infof("fetching tracks of spotify playlist %v", playlistID)

	tracks := r.spotify.PlaylistTracks(ctx, playlistID)
	export := &models.PlaylistExport{Playlist: r.lookupPlaylist(ctx, playlistID), Tracks: tracks}

	switch format {
	case "", "text":
		r.writePlain("Playlist: %s\n", export.Playlist.Name)
		r.writePlain("Length: %s\n", formatter.TotalDuration(tracks).Round(time.Second))
		return r.writeTracks("Tracks", tracks)
	case tasks.FormatJSON:
		if output == "" {
			return r.writeJSON(export, true)
		}
		path, err := formatter.WriteJSONExport(export, output)
		if err != nil {
			return err
		}
		return r.writeExported(export, path)
	case tasks.FormatCSV:
		if output == "" {
			output = playlistID
		}
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		return r.writeExported(export, result.TracksFile, result.MetadataFile)
	case tasks.FormatMarkdown:
		if output == "" {
			output = "."
		}
		result, err := formatter.WriteMarkdownExport(export, output, export.Playlist.ImageURL)
		if err != nil {
			return err
		}
		return r.writeExported(export, result.Files...)
	case tasks.FormatText:
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		return r.writeExported(export, path)
	default:
		return fmt.Errorf("%w: unknown format %q (use text, json, csv, markdown or txt)", shared.ErrInvalidArgument, format)
	}
}

// lookupPlaylist finds playlistID among the user's playlists, falling back to a bare summary.
func (r *Runner) lookupPlaylist(ctx context.Context, playlistID string) models.Playlist {
	for _, p := range r.spotify.UserPlaylists(ctx) {
		if p.ID == playlistID {
			return p
		}
	}
	return models.Playlist{ID: playlistID, Name: playlistID, URI: "spotify:playlist:" + playlistID}
}

func (r *Runner) writeExported(export *models.PlaylistExport, files ...string) error {
	r.logger.Infof("playlist exported with %v tracks", len(export.Tracks))
	r.writePlain("✓ Playlist exported\n")
	r.writePlain("  Playlist: %s\n", export.Playlist.Name)
	r.writePlain("  Tracks: %d\n", len(export.Tracks))
	for _, f := range files {
		r.writePlain("  File: %s\n", f)
	}
	return nil
}

// SpotifySearch runs a free-text track search.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if err := r.requireSpotify(); err != nil {
		return err
	}

	tracks := r.spotify.SearchTracks(ctx, query, cmd.Int("limit"))
	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	return r.writeTracks(fmt.Sprintf("Results for %q", query), tracks)
}

// SpotifyPlay starts playback of a track URI on the active device.
func (r *Runner) SpotifyPlay(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	if uri == "" {
		return fmt.Errorf("%w: track uri", shared.ErrMissingArgument)
	}
	if err := r.requireSpotify(); err != nil {
		return err
	}

	if err := r.spotify.PlayTrack(ctx, uri); err != nil {
		r.writePlain("✗ %s\n", tasks.PlaybackRemedy(err))
		return err
	}
	return r.writePlain("▶ Playing %s\n", uri)
}

// SpotifyAdd adds a track, or the currently playing track with --now, to a playlist.
//
// The playlist defaults to dashboard.default_playlist. Tracks already in the playlist are not added twice.
func (r *Runner) SpotifyAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	if playlistID == "" {
		playlistID = r.config.Dashboard.DefaultPlaylist
	}
	trackURI := cmd.String("track")

	if playlistID == "" {
		return fmt.Errorf("%w: --playlist (or dashboard.default_playlist)", shared.ErrMissingArgument)
	}
	if err := r.requireSpotify(); err != nil {
		return err
	}

	if cmd.Bool("now") {
		result, err := r.engine.AddNowPlaying(ctx, nil, playlistID)
		if err != nil {
			return err
		}
		return r.writeAddResult(result)
	}

	if trackURI == "" {
		return fmt.Errorf("%w: --track or --now", shared.ErrMissingArgument)
	}
	if r.spotify.IsTrackInPlaylist(ctx, playlistID, trackURI) {
		return r.writePlain("• %s is already in the playlist\n", trackURI)
	}
	if !r.spotify.AddTrackToPlaylist(ctx, playlistID, trackURI) {
		return fmt.Errorf("%w: failed to add track to playlist", shared.ErrAPIRequest)
	}
	return r.writePlain("✓ Added %s\n", trackURI)
}

func (r *Runner) writeAddResult(result *tasks.AddResult) error {
	switch result.Outcome {
	case tasks.Added:
		return r.writePlain("✓ Added %s\n", formatter.TrackLine(*result.Track))
	case tasks.AlreadyPresent:
		return r.writePlain("• %s is already in the playlist\n", formatter.TrackLine(*result.Track))
	case tasks.NothingPlaying:
		return r.writePlain("Nothing playing\n")
	default:
		return fmt.Errorf("%w: failed to add %s", shared.ErrAPIRequest, formatter.TrackLine(*result.Track))
	}
}

// SpotifyContains reports whether a playlist contains a track.
func (r *Runner) SpotifyContains(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	playlistID := cmd.String("playlist")
	trackURI := cmd.String("track")
	if r.spotify.IsTrackInPlaylist(ctx, playlistID, trackURI) {
		return r.writePlain("✓ %s is in the playlist\n", trackURI)
	}
	return r.writePlain("✗ %s is not in the playlist\n", trackURI)
}
