package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLibraryLoaded MsgKind = iota
	MsgTracksFetched
	MsgNowPlaying
	MsgPollTick
	MsgPlayed
	MsgTrackAdded
	MsgStateSaved
	MsgRefresh
)

type libraryData struct {
	profiles  []*models.Profile
	playlists []models.Playlist
	state     *models.UIState
	err       error
}

type tracksData struct {
	playlistID string
	tracks     []models.Track
}

type nowPlayingData struct {
	current *models.CurrentlyPlaying
	ran     bool
}

type playedData struct {
	track models.Track
	err   error
}

type addedData struct {
	result *tasks.AddResult
	err    error
}

// libraryLoadedMsg is the constructor for [MsgLibraryLoaded]
func libraryLoadedMsg(profiles []*models.Profile, playlists []models.Playlist, state *models.UIState, err error) Msg {
	return Msg{kind: MsgLibraryLoaded, data: libraryData{profiles, playlists, state, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlistID string, tracks []models.Track) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksData{playlistID, tracks}}
}

// nowPlayingMsg is the constructor for [MsgNowPlaying]
func nowPlayingMsg(current *models.CurrentlyPlaying, ran bool) Msg {
	return Msg{kind: MsgNowPlaying, data: nowPlayingData{current, ran}}
}

// pollTickMsg is the constructor for [MsgPollTick]
func pollTickMsg() Msg {
	return Msg{kind: MsgPollTick}
}

// playedMsg is the constructor for [MsgPlayed]
func playedMsg(track models.Track, err error) Msg {
	return Msg{kind: MsgPlayed, data: playedData{track, err}}
}

// trackAddedMsg is the constructor for [MsgTrackAdded]
func trackAddedMsg(result *tasks.AddResult, err error) Msg {
	return Msg{kind: MsgTrackAdded, data: addedData{result, err}}
}

// stateSavedMsg is the constructor for [MsgStateSaved]
func stateSavedMsg(err error) Msg {
	return Msg{kind: MsgStateSaved, data: err}
}

// refreshMsg is the constructor for [MsgRefresh]
func refreshMsg() Msg {
	return Msg{kind: MsgRefresh}
}
