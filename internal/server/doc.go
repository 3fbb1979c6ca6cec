// Package server provides HTTP routing, middleware, sessions and the dashboard JSON endpoints.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order so the first one added runs outermost.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, giving 405 responses and path wildcards.
//
// # Endpoints
//
// [App] registers the endpoints behind [Logging], [Recovery] and [Sessions]:
//
//	GET  /login                          redirect to the Spotify authorize page
//	GET  /callback                       code exchange, session cookie
//	POST /logout                         drop the session
//	POST /api/spotify/add-to-playlist    {playlistId, trackUri}
//	POST /api/spotify/play               {trackUri}
//	GET  /api/spotify/search?q=&limit=
//	GET  /api/dashboard
//	GET  /api/now-playing
//	GET  /api/profiles
//	GET  /api/profiles/{id}/playlists
//	GET  /api/playlists/grouped
//	GET  /api/channels?q=&type=
//
// Session-only endpoints answer 401 {"error":"Unauthorized"} without a valid cookie.
// A panicking handler answers 500 {"error":"Internal server error"}.
//
// # Sessions
//
// [SessionStore] keeps sessions and pending OAuth states in memory. Each session owns a provider client
// built from its token, so concurrent users never share credentials.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the one-shot callback of the CLI authorization flow. It validates the state parameter,
// exchanges the code and delivers the result through a channel. It only processes one callback.
package server
