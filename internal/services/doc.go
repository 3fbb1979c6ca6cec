// Package services defines the [Service] interface for music streaming providers and implements it for Spotify.
//
// # Service Interface
//
// The dashboard only needs reads (playback, history, top tracks, playlists, search) and two writes
// (add to playlist, start playback). Reads never return errors: failures are logged at warn level
// and surface as a nil snapshot or an empty slice, so a broken panel never takes the dashboard down.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
// OAuth endpoints and scopes come from the spotifyauth package of zmb3/spotify.
// [SpotifyService.SetTokenRefreshCallback] lets the CLI persist refreshed tokens to config.toml,
// and [SpotifyService.ForToken] derives a per-session client for the HTTP server.
//
// Playlist tracks are paged by following the provider's next links, which are only
// followed when they stay under the configured API base URL.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for OAuth providers.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : 401 from the API or a failed refresh
//   - [shared.ErrAPIRequest] : any other non-2xx response, as [*APIError]
//
// PlayTrack returns [*PlaybackError] whose Kind is [shared.ErrNoActiveDevice] (404),
// [shared.ErrPremiumRequired] (403) or [shared.ErrPlaybackFailed] carrying the provider message.
package services
