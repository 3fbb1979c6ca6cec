package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/playdeck/internal/filters"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
)

// Authorizer starts and completes the authorization code flow.
type Authorizer interface {
	Exchanger
	GetAuthURL(state string) string
}

// ClientFactory builds the provider client used by a session.
type ClientFactory func(token *oauth2.Token) (services.Service, error)

// ProfileReader is the read side of the profile repository.
type ProfileReader interface {
	Get(id string) (*models.Profile, error)
	List(criteria map[string]any) ([]*models.Profile, error)
}

// ChannelReader is the read side of the channel repository.
type ChannelReader interface {
	List(criteria map[string]any) ([]*models.Channel, error)
	Search(term string) ([]*models.Channel, error)
}

// StateStore persists the dashboard selection.
type StateStore interface {
	Get(userID string) (*models.UIState, error)
	Put(state *models.UIState) error
}

// DefaultStateUser owns the selection shared with the terminal dashboard.
const DefaultStateUser = "local"

// Options holds the dependencies of an [App].
type Options struct {
	Auth      Authorizer
	NewClient ClientFactory
	Sessions  *SessionStore
	Profiles  ProfileReader  // optional
	Channels  ChannelReader  // optional
	States    StateStore     // optional
	StateUser string         // default: DefaultStateUser
	Dashboard tasks.LoadOpts // section sizes for /api/dashboard
	Logger    *log.Logger
}

// App serves the dashboard JSON endpoints.
type App struct {
	auth      Authorizer
	newClient ClientFactory
	sessions  *SessionStore
	profiles  ProfileReader
	channels  ChannelReader
	states    StateStore
	stateUser string
	dashboard tasks.LoadOpts
	logger    *log.Logger
}

// NewApp creates an [App]. A nil session store is replaced with an empty one.
func NewApp(opts Options) *App {
	if opts.Sessions == nil {
		opts.Sessions = NewSessionStore(0)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.StateUser == "" {
		opts.StateUser = DefaultStateUser
	}
	return &App{
		auth:      opts.Auth,
		newClient: opts.NewClient,
		sessions:  opts.Sessions,
		profiles:  opts.Profiles,
		channels:  opts.Channels,
		states:    opts.States,
		stateUser: opts.StateUser,
		dashboard: opts.Dashboard,
		logger:    opts.Logger,
	}
}

// Sessions returns the store backing the app.
func (a *App) Sessions() *SessionStore { return a.sessions }

// Router builds a [BasicRouter] with logging, recovery and session middleware and every route registered.
func (a *App) Router() *BasicRouter {
	r := NewBasicRouter()
	r.Use(Logging(a.logger), Recovery(a.logger), Sessions(a.sessions))

	r.HandleFunc(http.MethodGet, "/healthz", a.health)
	r.HandleFunc(http.MethodGet, "/login", a.login)
	r.HandleFunc(http.MethodGet, "/callback", a.callback)
	r.HandleFunc(http.MethodPost, "/logout", a.logout)

	r.Handle(http.MethodPost, "/api/spotify/add-to-playlist", RequireSession(http.HandlerFunc(a.addToPlaylist)))
	r.Handle(http.MethodPost, "/api/spotify/play", RequireSession(http.HandlerFunc(a.play)))
	r.Handle(http.MethodGet, "/api/spotify/search", RequireSession(http.HandlerFunc(a.search)))
	r.Handle(http.MethodGet, "/api/dashboard", RequireSession(http.HandlerFunc(a.loadDashboard)))
	r.Handle(http.MethodGet, "/api/now-playing", RequireSession(http.HandlerFunc(a.nowPlaying)))

	if a.profiles != nil {
		r.HandleFunc(http.MethodGet, "/api/profiles", a.listProfiles)
		r.Handle(http.MethodGet, "/api/profiles/{id}/playlists", RequireSession(http.HandlerFunc(a.profilePlaylists)))
		r.Handle(http.MethodGet, "/api/playlists/grouped", RequireSession(http.HandlerFunc(a.groupedPlaylists)))
	}
	if a.channels != nil {
		r.HandleFunc(http.MethodGet, "/api/channels", a.listChannels)
	}
	if a.states != nil {
		r.HandleFunc(http.MethodGet, "/api/ui-state", a.getUIState)
		r.HandleFunc(http.MethodPut, "/api/ui-state", a.putUIState)
	}
	return r
}

type addToPlaylistRequest struct {
	PlaylistID string `json:"playlistId"`
	TrackURI   string `json:"trackUri"`
}

type playRequest struct {
	TrackURI string `json:"trackUri"`
}

type playbackErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	state, err := a.sessions.NewState()
	if err != nil {
		a.logger.Error("failed to generate oauth state", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	http.Redirect(w, r, a.auth.GetAuthURL(state), http.StatusFound)
}

func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !a.sessions.ConsumeState(q.Get("state")) {
		writeError(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}

	code := q.Get("code")
	if code == "" {
		a.logger.Warn("authorization denied", "error", q.Get("error"), "description", q.Get("error_description"))
		writeError(w, http.StatusBadRequest, "Authorization failed")
		return
	}

	token, err := a.auth.Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("token exchange failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Token exchange failed")
		return
	}

	client, err := a.newClient(token)
	if err != nil {
		a.logger.Error("failed to create session client", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	session := a.sessions.Create(token, client)
	setSessionCookie(w, session)
	a.logger.Info("session created", "session", session.ID)
	writeSuccessPage(w, "You are signed in. You can close this window.")
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := SessionFrom(r.Context()); ok {
		a.sessions.Delete(session.ID)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// addToPlaylist handles POST /api/spotify/add-to-playlist.
func (a *App) addToPlaylist(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())

	var req addToPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlaylistID == "" || req.TrackURI == "" {
		writeError(w, http.StatusBadRequest, "Missing playlistId or trackUri")
		return
	}

	if !session.Client.AddTrackToPlaylist(r.Context(), req.PlaylistID, req.TrackURI) {
		writeError(w, http.StatusInternalServerError, "Failed to add track to playlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *App) play(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())

	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TrackURI == "" {
		writeError(w, http.StatusBadRequest, "Missing trackUri")
		return
	}

	err := session.Client.PlayTrack(r.Context(), req.TrackURI)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	status, code := playbackStatus(err)
	writeJSON(w, status, playbackErrorResponse{
		Error:   err.Error(),
		Code:    code,
		Message: tasks.PlaybackRemedy(err),
	})
}

func playbackStatus(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrNoActiveDevice):
		return http.StatusNotFound, "NO_ACTIVE_DEVICE"
	case errors.Is(err, shared.ErrPremiumRequired):
		return http.StatusForbidden, "PREMIUM_REQUIRED"
	default:
		return http.StatusBadGateway, "PLAYBACK_FAILED"
	}
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, session.Client.SearchTracks(r.Context(), r.URL.Query().Get("q"), limit))
}

func (a *App) loadDashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())

	dash, err := tasks.NewDashboardEngine(session.Client, a.logger).Load(r.Context(), nil, a.dashboard)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		a.logger.Error("failed to load dashboard", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *App) nowPlaying(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	writeJSON(w, http.StatusOK, session.Client.CurrentlyPlaying(r.Context()))
}

func (a *App) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.profiles.List(nil)
	if err != nil {
		a.logger.Error("failed to list profiles", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (a *App) profilePlaylists(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())

	profile, err := a.profiles.Get(r.PathValue("id"))
	if errors.Is(err, shared.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		a.logger.Error("failed to load profile", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	playlists := session.Client.UserPlaylists(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":   profile,
		"playlists": filters.FilterPlaylistsByProfile(playlists, profile),
	})
}

func (a *App) groupedPlaylists(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())

	profiles, err := a.profiles.List(nil)
	if err != nil {
		a.logger.Error("failed to list profiles", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	playlists := session.Client.UserPlaylists(r.Context())
	writeJSON(w, http.StatusOK, filters.GroupPlaylistsByProfiles(playlists, profiles))
}

// listChannels handles GET /api/channels?q=term&type=spotify|youtube.
func (a *App) listChannels(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	kind := r.URL.Query().Get("type")

	var (
		channels []*models.Channel
		err      error
	)
	if q != "" {
		channels, err = a.channels.Search(q)
	} else {
		criteria := map[string]any{}
		if kind != "" {
			criteria["kind"] = kind
		}
		channels, err = a.channels.List(criteria)
	}
	if err != nil {
		a.logger.Error("failed to list channels", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if q != "" && kind != "" {
		filtered := make([]*models.Channel, 0, len(channels))
		for _, c := range channels {
			if string(c.Kind()) == kind {
				filtered = append(filtered, c)
			}
		}
		channels = filtered
	}
	writeJSON(w, http.StatusOK, channels)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (a *App) getUIState(w http.ResponseWriter, r *http.Request) {
	state, err := a.states.Get(a.stateUser)
	if err != nil {
		a.logger.Error("failed to load ui state", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type uiStateRequest struct {
	SelectedProfileID  string      `json:"selectedProfileId"`
	SelectedPlaylistID string      `json:"selectedPlaylistId"`
	CurrentView        models.View `json:"currentView"`
}

func (a *App) putUIState(w http.ResponseWriter, r *http.Request) {
	var req uiStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch req.CurrentView {
	case "", models.ViewHome, models.ViewPlaylists, models.ViewSearch:
	default:
		writeError(w, http.StatusBadRequest, "Unknown view")
		return
	}

	state := &models.UIState{
		UserID:             a.stateUser,
		SelectedProfileID:  req.SelectedProfileID,
		SelectedPlaylistID: req.SelectedPlaylistID,
		CurrentView:        req.CurrentView,
	}
	if err := a.states.Put(state); err != nil {
		a.logger.Error("failed to save ui state", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
