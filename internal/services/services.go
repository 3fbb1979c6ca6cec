// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/playdeck/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the read and write operations the dashboard needs from a music provider.
//
// Read operations never fail: provider errors are logged and surface as a nil snapshot or an empty slice.
type Service interface {
	// CurrentlyPlaying returns the playback snapshot, or nil when nothing is playing or the request fails.
	CurrentlyPlaying(ctx context.Context) *models.CurrentlyPlaying

	// RecentlyPlayed returns up to limit recently played tracks, most recent first.
	RecentlyPlayed(ctx context.Context, limit int) []models.Track

	// TopTracks returns up to limit top tracks for the given window.
	TopTracks(ctx context.Context, limit int, timeRange models.TimeRange) []models.Track

	// UserPlaylists returns the first page (up to 50) of the user's playlists.
	UserPlaylists(ctx context.Context) []models.Playlist

	// PlaylistTracks returns every track of a playlist, or an empty slice if any page fails.
	PlaylistTracks(ctx context.Context, playlistID string) []models.Track

	// IsTrackInPlaylist reports whether trackURI is in the playlist. Failures read as false.
	IsTrackInPlaylist(ctx context.Context, playlistID, trackURI string) bool

	// AddTrackToPlaylist appends trackURI to the playlist and reports success.
	AddTrackToPlaylist(ctx context.Context, playlistID, trackURI string) bool

	// PlayTrack starts playback of trackURI on the active device.
	// Failures are returned as *PlaybackError.
	PlayTrack(ctx context.Context, trackURI string) error

	// SearchTracks runs a free-text track search.
	SearchTracks(ctx context.Context, query string, limit int) []models.Track

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] with the authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the provider authorization URL carrying state.
	GetAuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}
