// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// DefaultRedirectURI is used when the credentials do not name one.
	DefaultRedirectURI = "http://127.0.0.1:3000/callback"

	defaultLimit      = 20
	maxLimit          = 50
	playlistPageSize  = 100
	userPlaylistsPage = 50
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	PreviewURL *string         `json:"preview_url"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Tracks simplePlaylistTracks `json:"tracks"`
	Images []SpotifyImage       `json:"images"`
	URI    string               `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is nil for removed or unavailable items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlayHistory is an entry of the recently played list.
type SpotifyPlayHistory struct {
	PlayedAt string       `json:"played_at"`
	Track    SpotifyTrack `json:"track"`
}

// SpotifyPage is the paging object wrapping list responses.
type SpotifyPage[T any] struct {
	Items []T    `json:"items"`
	Total int    `json:"total"`
	Limit int    `json:"limit"`
	Next  string `json:"next"`
}

// SpotifyCurrentlyPlaying is the body of GET /me/player/currently-playing.
type SpotifyCurrentlyPlaying struct {
	Item       *SpotifyTrack `json:"item"`
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Timestamp  int64         `json:"timestamp"`
}

type spotifySearch struct {
	Tracks SpotifyPage[SpotifyTrack] `json:"tracks"`
}

type urisBody struct {
	URIs []string `json:"uris"`
}

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match [shared.ErrTokenExpired] on 401 and [shared.ErrAPIRequest] otherwise.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}
	return shared.ErrAPIRequest
}

// newAPIError reads the provider message from body, falling back to the status text.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &APIError{StatusCode: status, Message: msg}
}

// PlaybackError is returned by PlayTrack.
//
// Kind is one of [shared.ErrNoActiveDevice], [shared.ErrPremiumRequired] or [shared.ErrPlaybackFailed].
type PlaybackError struct {
	Kind    error
	Message string
}

func (e *PlaybackError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *PlaybackError) Unwrap() error { return e.Kind }

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithBaseURL points the service at another API root, such as an httptest server.
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the client used for API and token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SpotifyService) { s.base = c }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = l }
}

// WithRateLimit caps outgoing requests per second. Non-positive values disable limiting.
func WithRateLimit(rps float64) Option {
	return func(s *SpotifyService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(s *SpotifyService) { s.timeout = d }
}

// SpotifyService implements the [OAuthService] interface for Spotify API interactions.
// Uses [oauth2] for authentication and the dashboard read/write operations.
type SpotifyService struct {
	config  *oauth2.Config
	baseURL string
	base    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *log.Logger

	mu             sync.RWMutex
	httpClient     *http.Client
	onTokenRefresh func(*oauth2.Token)
	source         oauth2.TokenSource
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	s := newService(opts...)
	s.config = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
	return s, nil
}

func newService(opts ...Option) *SpotifyService {
	s := &SpotifyService{
		baseURL: spotifyBaseURL,
		base:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
//
// An optional "refresh_token" lets the client renew an expired access token.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.SetToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		return s.SetToken(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// SetToken installs token as the bearer credential. Expired tokens with a refresh token are renewed on demand.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	var src oauth2.TokenSource
	if s.config != nil && token.RefreshToken != "" {
		refreshCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, s.base)
		src = &refreshableTokenSource{
			source:   s.config.TokenSource(refreshCtx, token),
			last:     token.AccessToken,
			callback: s.notifyRefresh,
		}
	} else {
		src = oauth2.StaticTokenSource(token)
	}

	client := &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: s.base.Transport},
		Timeout:   s.timeout,
	}

	s.mu.Lock()
	s.httpClient = client
	s.source = src
	s.mu.Unlock()
	return nil
}

// ForToken returns a service sharing this one's configuration, limiter and logger, authorized with token.
//
// Used by the HTTP server to act on behalf of a session.
func (s *SpotifyService) ForToken(token *oauth2.Token) (*SpotifyService, error) {
	clone := &SpotifyService{
		config:  s.config,
		baseURL: s.baseURL,
		base:    s.base,
		timeout: s.timeout,
		limiter: s.limiter,
		logger:  s.logger,
	}
	if err := clone.SetToken(context.Background(), token); err != nil {
		return nil, err
	}
	return clone, nil
}

// Token returns the current token, refreshing it if needed.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()
	if src == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return src.Token()
}

// SetTokenRefreshCallback registers fn to receive every token obtained by a refresh.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	s.onTokenRefresh = fn
	s.mu.Unlock()
}

func (s *SpotifyService) notifyRefresh(token *oauth2.Token) {
	s.mu.RLock()
	fn := s.onTokenRefresh
	s.mu.RUnlock()
	s.logger.Debug("spotify token refreshed", "expiry", token.Expiry)
	if fn != nil {
		fn(token)
	}
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every access token change to callback.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	last     string
	callback func(*oauth2.Token)
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if s.config == nil {
		return nil, fmt.Errorf("%w: service has no OAuth configuration", shared.ErrMissingCredentials)
	}
	token, err := s.config.Exchange(context.WithValue(ctx, oauth2.HTTPClient, s.base), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

func (s *SpotifyService) client() *http.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.httpClient
}

// resolve turns an API path or a pagination link into an absolute URL.
//
// Absolute links are only accepted under the configured base URL so the bearer token never leaves the API host.
func (s *SpotifyService) resolve(endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, "/") {
		return s.baseURL + endpoint, nil
	}
	if strings.HasPrefix(endpoint, s.baseURL+"/") {
		return endpoint, nil
	}
	return "", fmt.Errorf("%w: refusing to follow link outside %s: %s", shared.ErrAPIRequest, s.baseURL, endpoint)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// Empty bodies (204 No Content) leave result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	client := s.client()
	if client == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL, err := s.resolve(endpoint)
	if err != nil {
		return err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentlyPlaying returns the playback snapshot, or nil when nothing is playing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) *models.CurrentlyPlaying {
	var resp *SpotifyCurrentlyPlaying
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/currently-playing", nil, &resp); err != nil {
		s.logger.Warn("failed to fetch currently playing", "err", err)
		return nil
	}
	if resp == nil || resp.Item == nil {
		return nil
	}

	track := formatTrack(*resp.Item)
	return &models.CurrentlyPlaying{
		Track:      &track,
		IsPlaying:  resp.IsPlaying,
		ProgressMS: resp.ProgressMS,
		Timestamp:  resp.Timestamp,
	}
}

// RecentlyPlayed returns up to limit recently played tracks.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) []models.Track {
	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", clampLimit(limit))

	var resp SpotifyPage[SpotifyPlayHistory]
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		s.logger.Warn("failed to fetch recently played", "err", err)
		return []models.Track{}
	}

	tracks := make([]models.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		tracks = append(tracks, formatTrack(item.Track))
	}
	return tracks
}

// TopTracks returns up to limit top tracks; an empty timeRange means short_term.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int, timeRange models.TimeRange) []models.Track {
	if timeRange == "" {
		timeRange = models.ShortTerm
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprint(clampLimit(limit)))
	q.Set("time_range", string(timeRange))

	var resp SpotifyPage[SpotifyTrack]
	if err := s.doRequest(ctx, http.MethodGet, "/me/top/tracks?"+q.Encode(), nil, &resp); err != nil {
		s.logger.Warn("failed to fetch top tracks", "err", err, "time_range", timeRange)
		return []models.Track{}
	}
	return formatTracks(resp.Items)
}

// UserPlaylists returns the first page of the user's playlists. Playlists past the first 50 are not fetched.
func (s *SpotifyService) UserPlaylists(ctx context.Context) []models.Playlist {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d", userPlaylistsPage)

	var resp SpotifyPage[SpotifySimplePlaylist]
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		s.logger.Warn("failed to fetch playlists", "err", err)
		return []models.Playlist{}
	}

	playlists := make([]models.Playlist, 0, len(resp.Items))
	for _, p := range resp.Items {
		playlists = append(playlists, formatPlaylist(p))
	}
	return playlists
}

// PlaylistTracks follows next links until the playlist is exhausted.
//
// Any page failure discards the tracks collected so far.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) []models.Track {
	tracks, err := s.playlistTracks(ctx, playlistID)
	if err != nil {
		s.logger.Warn("failed to fetch playlist tracks", "err", err, "playlist", playlistID)
		return []models.Track{}
	}
	return tracks
}

func (s *SpotifyService) playlistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: empty playlist id", shared.ErrInvalidInput)
	}

	tracks := []models.Track{}
	next := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), playlistPageSize)
	for next != "" {
		var page SpotifyPage[SpotifyPlaylistTrack]
		if err := s.doRequest(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, formatTrack(*item.Track))
		}
		next = page.Next
	}
	return tracks, nil
}

// IsTrackInPlaylist reports whether trackURI appears in the playlist.
func (s *SpotifyService) IsTrackInPlaylist(ctx context.Context, playlistID, trackURI string) bool {
	for _, t := range s.PlaylistTracks(ctx, playlistID) {
		if t.URI == trackURI {
			return true
		}
	}
	return false
}

// AddTrackToPlaylist appends trackURI to the playlist.
func (s *SpotifyService) AddTrackToPlaylist(ctx context.Context, playlistID, trackURI string) bool {
	if playlistID == "" || trackURI == "" {
		s.logger.Warn("refusing to add track", "playlist", playlistID, "uri", trackURI)
		return false
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, urisBody{URIs: []string{trackURI}}, nil); err != nil {
		s.logger.Warn("failed to add track to playlist", "err", err, "playlist", playlistID, "uri", trackURI)
		return false
	}
	return true
}

// PlayTrack starts playback of trackURI on the user's active device.
func (s *SpotifyService) PlayTrack(ctx context.Context, trackURI string) error {
	err := s.doRequest(ctx, http.MethodPut, "/me/player/play", urisBody{URIs: []string{trackURI}}, nil)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return &PlaybackError{Kind: shared.ErrNoActiveDevice}
		case http.StatusForbidden:
			return &PlaybackError{Kind: shared.ErrPremiumRequired}
		default:
			return &PlaybackError{Kind: shared.ErrPlaybackFailed, Message: apiErr.Message}
		}
	}
	return &PlaybackError{Kind: shared.ErrPlaybackFailed, Message: err.Error()}
}

// SearchTracks runs a free-text track search. A blank query returns no tracks without a request.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) []models.Track {
	if strings.TrimSpace(query) == "" {
		return []models.Track{}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", fmt.Sprint(clampLimit(limit)))

	var resp spotifySearch
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &resp); err != nil {
		s.logger.Warn("failed to search tracks", "err", err, "query", query)
		return []models.Track{}
	}
	return formatTracks(resp.Tracks.Items)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

func formatTracks(items []SpotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, t := range items {
		tracks = append(tracks, formatTrack(t))
	}
	return tracks
}

func formatTrack(t SpotifyTrack) models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	track := models.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		URI:        t.URI,
	}
	if len(t.Album.Images) > 0 {
		track.ImageURL = t.Album.Images[0].URL
	}
	if t.PreviewURL != nil {
		track.PreviewURL = *t.PreviewURL
	}
	return track
}

func formatPlaylist(p SpotifySimplePlaylist) models.Playlist {
	playlist := models.Playlist{
		ID:         p.ID,
		Name:       p.Name,
		TrackCount: p.Tracks.Total,
		URI:        p.URI,
	}
	if len(p.Images) > 0 {
		playlist.ImageURL = p.Images[0].URL
	}
	return playlist
}
