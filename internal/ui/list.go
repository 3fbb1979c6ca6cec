package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/playdeck/internal/formatter"
	"github.com/desertthunder/playdeck/internal/models"
)

var (
	_ list.Item = profileItem{}
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// profileItem wraps [models.Profile] to implement [list.Item]. A nil profile stands for every playlist.
type profileItem struct {
	profile *models.Profile
	count   int
}

func (i profileItem) FilterValue() string { return i.Title() }
func (i profileItem) Title() string {
	if i.profile == nil {
		return "All playlists"
	}
	if i.profile.Icon() != "" {
		return i.profile.Icon() + " " + i.profile.Name()
	}
	return i.profile.Name()
}
func (i profileItem) Description() string {
	desc := fmt.Sprintf("%d playlists", i.count)
	if i.profile != nil && len(i.profile.Keywords()) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.profile.Keywords(), ", "))
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%s tracks", formatter.FormatCount(i.playlist.TrackCount))
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.DurationMS))
}
