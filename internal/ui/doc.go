// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// The TUI narrows the user's library in three steps:
//  1. [ProfileListView] : Pick a music profile (or "All playlists")
//  2. [PlaylistListView] : Browse the playlists whose names match the profile keywords
//  3. [TrackListView] : Browse a playlist's tracks and start playback
//
// A now playing banner sits above every view. It is refreshed on the [tasks.NowPlayingPoller] interval; a tick
// that fires while the previous poll is still running is skipped rather than queued.
//
// The selected profile and playlist are saved through a [StateStore] under [LocalUser] and restored on start.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p, a, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
