// Package tasks builds the dashboard operations on top of a [services.Service] with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines three operations:
//
//  1. [Engine.Load] : Home view data
//     - Now playing, top tracks, recently played and playlists
//     - Sections are fetched concurrently and joined before returning
//     - A failing section degrades to empty, matching the service contract
//
//  2. [Engine.AddNowPlaying] : Add the current track to a playlist
//     - Checks membership first so a track is never added twice
//     - Reports an [AddOutcome] rather than an error for provider failures
//
//  3. [Engine.BulkExport] : Write playlists and their tracks to disk
//     - Rate-limited track fetches feeding a worker pool of writers
//     - JSON, CSV, Markdown or plain text via the formatter package
//     - Summarized in an export manifest
//
// # Polling
//
// [NowPlayingPoller] refreshes playback state on an interval and never overlaps polls.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Playback
//
// [PlaybackRemedy] turns a playback failure into the instructions shown to the user.
package tasks
