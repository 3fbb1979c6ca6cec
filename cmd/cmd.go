// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify listening and playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SpotifyAuth,
			},
			{
				Name:    "now",
				Aliases: []string{"playing"},
				Usage:   "Show the currently playing track",
				Flags:   jsonFlags(),
				Action:  r.SpotifyNow,
			},
			{
				Name:  "recent",
				Usage: "List recently played tracks",
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of tracks (1-50)", Value: 10},
				),
				Action: r.SpotifyRecent,
			},
			{
				Name:  "top",
				Usage: "List top tracks",
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of tracks (1-50)", Value: 5},
					&cli.StringFlag{Name: "range", Usage: "Time range: short_term, medium_term or long_term", Value: "short_term"},
				),
				Action: r.SpotifyTop,
			},
			{
				Name:  "playlists",
				Usage: "List Spotify playlists",
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of playlists to show", Value: 50},
					&cli.BoolFlag{Name: "save", Usage: "Save the playlists to spotify_playlists.json"},
				),
				Action: r.SpotifyPlaylists,
			},
			{
				Name:  "tracks",
				Usage: "List or export every track of a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Playlist ID", Required: true},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: text, json, csv, markdown or txt"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file or directory"},
				},
				Action: r.SpotifyTracks,
			},
			{
				Name:      "search",
				Usage:     "Search Spotify for tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of results (1-50)", Value: 10},
				),
				Action: r.SpotifySearch,
			},
			{
				Name:      "play",
				Usage:     "Play a track on the active device",
				Arguments: []cli.Argument{&cli.StringArg{Name: "uri"}},
				Action:    r.SpotifyPlay,
			},
			{
				Name:  "add",
				Usage: "Add a track (or the playing track) to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "Playlist ID (default: dashboard.default_playlist)"},
					&cli.StringFlag{Name: "track", Aliases: []string{"t"}, Usage: "Track URI"},
					&cli.BoolFlag{Name: "now", Usage: "Add the currently playing track"},
				},
				Action: r.SpotifyAdd,
			},
			{
				Name:  "contains",
				Usage: "Check whether a playlist contains a track",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "Playlist ID", Required: true},
					&cli.StringFlag{Name: "track", Aliases: []string{"t"}, Usage: "Track URI", Required: true},
				},
				Action: r.SpotifyContains,
			},
		},
	}
}

// dashboardCommand prints every dashboard section once.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"dash"},
		Usage:   "Show now playing, top tracks, recent tracks and playlists",
		Flags: append(jsonFlags(),
			&cli.IntFlag{Name: "top", Usage: "Number of top tracks (default: dashboard.top_limit)"},
			&cli.IntFlag{Name: "recent", Usage: "Number of recent tracks (default: dashboard.recent_limit)"},
			&cli.StringFlag{Name: "range", Usage: "Top tracks time range (default: dashboard.time_range)"},
		),
		Action: r.Dashboard,
	}
}

// profilesCommand manages music profiles.
func profilesCommand(r *Runner) *cli.Command {
	profileFlags := []cli.Flag{
		&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "Comma-separated keywords matched against playlist names"},
		&cli.StringFlag{Name: "color", Usage: "Display color, e.g. #1DB954"},
		&cli.StringFlag{Name: "icon", Usage: "Display icon"},
	}

	return &cli.Command{
		Name:    "profiles",
		Aliases: []string{"profile"},
		Usage:   "Manage music profiles that group playlists by keyword",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a profile",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     profileFlags,
				Action:    r.ProfileCreate,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List profiles",
				Flags: append(jsonFlags(),
					&cli.StringFlag{Name: "name", Usage: "Only list the profile with this name"},
				),
				Action: r.ProfileList,
			},
			{
				Name:      "update",
				Usage:     "Update a profile by ID or name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "profile"}},
				Flags: append(profileFlags,
					&cli.StringFlag{Name: "name", Usage: "New name"},
				),
				Action: r.ProfileUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a profile by ID or name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "profile"}},
				Action:    r.ProfileDelete,
			},
			{
				Name:      "match",
				Usage:     "List the playlists matching a profile",
				Arguments: []cli.Argument{&cli.StringArg{Name: "profile"}},
				Flags:     jsonFlags(),
				Action:    r.ProfileMatch,
			},
			{
				Name:   "groups",
				Usage:  "Group every playlist by profile",
				Flags:  jsonFlags(),
				Action: r.ProfileGroups,
			},
			{
				Name:      "export",
				Usage:     "Export every playlist matching a profile",
				Arguments: []cli.Argument{&cli.StringArg{Name: "profile"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format: json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent file writers (1-10)", Value: 5},
					&cli.FloatFlag{Name: "rate", Usage: "Playlist fetches per second", Value: 5},
					&cli.BoolFlag{Name: "covers", Usage: "Download cover images for markdown exports"},
				},
				Action: r.ProfileExport,
			},
		},
	}
}

// channelsCommand manages the curated channel catalog.
func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "channels",
		Aliases: []string{"channel"},
		Usage:   "Manage the curated channel catalog",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a channel",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "Channel type: spotify or youtube", Value: "spotify"},
					&cli.StringFlag{Name: "url", Usage: "Channel URL", Required: true},
					&cli.StringFlag{Name: "thumbnail", Usage: "Thumbnail image URL"},
					&cli.BoolFlag{Name: "featured", Usage: "Feature the channel"},
				},
				Action: r.ChannelAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List channels",
				Flags: append(jsonFlags(),
					&cli.StringFlag{Name: "type", Usage: "Only list channels of this type"},
					&cli.BoolFlag{Name: "featured", Usage: "Only list featured channels"},
				),
				Action: r.ChannelList,
			},
			{
				Name:      "search",
				Usage:     "Search channels by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "term"}},
				Flags:     jsonFlags(),
				Action:    r.ChannelSearch,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a channel",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ChannelRemove,
			},
		},
	}
}

// serveCommand runs the dashboard HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default: server.host:server.port)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log", Usage: "Log file path", Value: "./tmp/playdeck-tui.log"},
		},
		Action: r.TUI,
	}
}
