package tasks

import (
	"fmt"

	"github.com/desertthunder/playdeck/internal/formatter"
	"github.com/desertthunder/playdeck/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchNowPlaying Phase = iota
	FetchTopTracks
	FetchRecent
	FetchPlaylists
	FetchTracks
	AddTrack
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchNowPlaying:
		return "fetch_now_playing"
	case FetchTopTracks:
		return "fetch_top_tracks"
	case FetchRecent:
		return "fetch_recent"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case AddTrack:
		return "add_track"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func sectionLoadedUpdate(phase Phase, step, total, count int, data any) ProgressUpdate {
	var msg string
	switch phase {
	case FetchNowPlaying:
		msg = "Loaded playback state"
		if cp, ok := data.(*models.CurrentlyPlaying); ok && cp != nil && cp.Track != nil {
			msg = "Now playing: " + formatter.TrackLine(*cp.Track)
		}
	case FetchTopTracks:
		msg = fmt.Sprintf("Loaded %d top tracks", count)
	case FetchRecent:
		msg = fmt.Sprintf("Loaded %d recently played tracks", count)
	case FetchPlaylists:
		msg = fmt.Sprintf("Loaded %d playlists", count)
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    data,
	}
}

func checkMembershipUpdate(track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTrack,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Checking playlist for %s...", formatter.TrackLine(*track)),
		Data:    track,
	}
}

func addingTrackUpdate(track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTrack,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Adding %s...", formatter.TrackLine(*track)),
		Data:    track,
	}
}

func fetchingTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
