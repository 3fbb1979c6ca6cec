package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
)

// RecentRefreshDelay is how long callers wait after a successful play before reloading recently played tracks.
const RecentRefreshDelay = 1500 * time.Millisecond

// Dashboard is the data behind the home view.
type Dashboard struct {
	NowPlaying *models.CurrentlyPlaying `json:"nowPlaying"`
	TopTracks  []models.Track           `json:"topTracks"`
	Recent     []models.Track           `json:"recentlyPlayed"`
	Playlists  []models.Playlist        `json:"playlists"`
}

// LoadOpts sizes the dashboard sections.
type LoadOpts struct {
	TopLimit    int              // default: 5
	RecentLimit int              // default: 10
	TimeRange   models.TimeRange // default: short_term
}

func (o LoadOpts) withDefaults() LoadOpts {
	if o.TopLimit <= 0 {
		o.TopLimit = 5
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = 10
	}
	if o.TimeRange == "" {
		o.TimeRange = models.ShortTerm
	}
	return o
}

// AddOutcome describes what [DashboardEngine.AddNowPlaying] did.
type AddOutcome int

const (
	Added AddOutcome = iota
	AlreadyPresent
	NothingPlaying
	AddFailed
)

func (o AddOutcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	case NothingPlaying:
		return "nothing_playing"
	case AddFailed:
		return "add_failed"
	default:
		return ""
	}
}

// AddResult is the outcome of an add-now-playing request with the track it concerned, if any.
type AddResult struct {
	Outcome AddOutcome
	Track   *models.Track
}

// Engine defines the dashboard operations built on top of a [services.Service].
type Engine interface {
	// Load fetches the now playing, top track, recently played and playlist sections concurrently.
	Load(ctx context.Context, progress chan<- ProgressUpdate, opts LoadOpts) (*Dashboard, error)

	// AddNowPlaying adds the current track to playlistID unless it is already there.
	AddNowPlaying(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*AddResult, error)

	// BulkExport writes every given playlist and its tracks to disk.
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.Playlist, opts BulkExportOpts) (*BulkExportResult, error)
}

// DashboardEngine implements [Engine] against a single music service.
type DashboardEngine struct {
	spotify services.Service
	logger  *log.Logger
}

// NewDashboardEngine creates a new DashboardEngine. A nil logger falls back to [shared.NewLogger].
func NewDashboardEngine(spotify services.Service, logger *log.Logger) *DashboardEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DashboardEngine{spotify: spotify, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *DashboardEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Load fetches all dashboard sections concurrently and joins them before returning.
//
// Sections degrade to empty on provider failure, so the only error is context cancellation.
func (e *DashboardEngine) Load(ctx context.Context, progress chan<- ProgressUpdate, opts LoadOpts) (*Dashboard, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	opts = opts.withDefaults()

	const sections = 4
	var (
		dash Dashboard
		done atomic.Int32
	)
	loaded := func(phase Phase, count int, data any) {
		step := int(done.Add(1))
		e.sendProgress(progress, sectionLoadedUpdate(phase, step, sections, count, data))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.NowPlaying = e.spotify.CurrentlyPlaying(gctx)
		loaded(FetchNowPlaying, 1, dash.NowPlaying)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.TopTracks = e.spotify.TopTracks(gctx, opts.TopLimit, opts.TimeRange)
		loaded(FetchTopTracks, len(dash.TopTracks), dash.TopTracks)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.Recent = e.spotify.RecentlyPlayed(gctx, opts.RecentLimit)
		loaded(FetchRecent, len(dash.Recent), dash.Recent)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.Playlists = e.spotify.UserPlaylists(gctx)
		loaded(FetchPlaylists, len(dash.Playlists), dash.Playlists)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard load interrupted: %w", err)
	}

	if dash.TopTracks == nil {
		dash.TopTracks = []models.Track{}
	}
	if dash.Recent == nil {
		dash.Recent = []models.Track{}
	}
	if dash.Playlists == nil {
		dash.Playlists = []models.Playlist{}
	}

	e.logger.Debug("dashboard loaded",
		"top", len(dash.TopTracks), "recent", len(dash.Recent), "playlists", len(dash.Playlists),
		"playing", dash.NowPlaying != nil && dash.NowPlaying.IsPlaying)
	return &dash, nil
}

// AddNowPlaying reads the current track and adds it to playlistID when it is not already a member.
func (e *DashboardEngine) AddNowPlaying(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*AddResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	current := e.spotify.CurrentlyPlaying(ctx)
	if current == nil || current.Track == nil || current.Track.URI == "" {
		return &AddResult{Outcome: NothingPlaying}, nil
	}
	track := current.Track

	e.sendProgress(progress, checkMembershipUpdate(track))
	if e.spotify.IsTrackInPlaylist(ctx, playlistID, track.URI) {
		return &AddResult{Outcome: AlreadyPresent, Track: track}, nil
	}

	e.sendProgress(progress, addingTrackUpdate(track))
	if !e.spotify.AddTrackToPlaylist(ctx, playlistID, track.URI) {
		e.logger.Warn("failed to add now playing track", "playlist", playlistID, "track", track.URI)
		return &AddResult{Outcome: AddFailed, Track: track}, nil
	}

	return &AddResult{Outcome: Added, Track: track}, nil
}

// PlaybackRemedy returns the message shown to the user when playing a track fails. A nil error returns "".
func PlaybackRemedy(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrNoActiveDevice):
		return "No active Spotify device found!\n\n" +
			"To play music:\n" +
			"1. Open Spotify on your computer or phone\n" +
			"2. Play any song (then you can pause it)\n" +
			"3. Try clicking the track again"
	case errors.Is(err, shared.ErrPremiumRequired):
		return "Spotify Premium is required to control playback from this app."
	}

	msg := err.Error()
	var pe *services.PlaybackError
	if errors.As(err, &pe) && pe.Message != "" {
		msg = pe.Message
	}
	return fmt.Sprintf("Unable to play track: %s\n\nMake sure Spotify is open and you have an active device.", msg)
}
