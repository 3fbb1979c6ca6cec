package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/playdeck/internal/filters"
	"github.com/desertthunder/playdeck/internal/formatter"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/tasks"
)

// LocalUser is the [models.UIState] key used by the terminal dashboard.
const LocalUser = "local"

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProfileListView ViewState = iota
	PlaylistListView
	TrackListView
)

// ProfileLister lists the saved music profiles. [repositories.ProfileRepository] implements it.
type ProfileLister interface {
	List(criteria map[string]any) ([]*models.Profile, error)
}

// StateStore loads and saves the dashboard selection. [repositories.UIStateRepository] implements it.
type StateStore interface {
	Get(userID string) (*models.UIState, error)
	Put(state *models.UIState) error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	spotify  services.Service
	engine   *tasks.DashboardEngine
	poller   *tasks.NowPlayingPoller
	profiles ProfileLister
	store    StateStore
	width    int
	height   int

	profileList  list.Model
	playlistList list.Model
	trackList    list.Model

	allProfiles      []*models.Profile
	playlists        []models.Playlist
	selectedProfile  *models.Profile
	selectedPlaylist *models.Playlist
	nowPlaying       *models.CurrentlyPlaying

	status    string
	statusErr bool
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// engine and poller default when nil. profiles and store may be nil, in which case only "All playlists" is offered and nothing is remembered.
func NewModel(ctx context.Context, spotify services.Service, engine *tasks.DashboardEngine, poller *tasks.NowPlayingPoller, profiles ProfileLister, store StateStore) *Model {
	if engine == nil {
		engine = tasks.NewDashboardEngine(spotify, nil)
	}
	if poller == nil {
		poller = tasks.NewNowPlayingPoller(spotify, tasks.DefaultPollInterval)
	}

	m := &Model{
		ctx:      ctx,
		view:     ProfileListView,
		spotify:  spotify,
		engine:   engine,
		poller:   poller,
		profiles: profiles,
		store:    store,
		width:    80,
		height:   24,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.profileList = m.newList("Profiles", nil)
	m.playlistList = m.newList("Playlists", nil)
	m.trackList = m.newList("Tracks", nil)
	return m
}

// Init loads the library and starts the now playing poll loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadLibrary(), m.pollNowPlaying(), m.scheduleTick(m.poller.Interval()))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.activeList().FilterState() == list.Filtering {
			return m.updateLists(msg)
		}
		switch m.view {
		case ProfileListView:
			return m.handleProfileListKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLibraryLoaded:
		data := msg.data.(libraryData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.allProfiles = data.profiles
		m.playlists = data.playlists
		m.setStatus("", false)
		m.setProfileItems()
		return m, m.restore(data.state)

	case MsgTracksFetched:
		data := msg.data.(tracksData)
		if m.selectedPlaylist == nil || m.selectedPlaylist.ID != data.playlistID {
			return m, nil
		}
		items := make([]list.Item, len(data.tracks))
		for i, track := range data.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = m.newList(fmt.Sprintf("Tracks in '%s' (%s)", m.selectedPlaylist.Name,
			formatter.TotalDuration(data.tracks).Round(time.Second)), items)
		if len(data.tracks) == 0 && m.selectedPlaylist.TrackCount > 0 {
			m.setStatus(fmt.Sprintf("Could not load the tracks of '%s'", m.selectedPlaylist.Name), true)
		}
		return m, nil

	case MsgPollTick:
		return m, tea.Batch(m.pollNowPlaying(), m.scheduleTick(m.poller.Interval()))

	case MsgNowPlaying:
		data := msg.data.(nowPlayingData)
		if data.ran {
			m.nowPlaying = data.current
		}
		return m, nil

	case MsgPlayed:
		data := msg.data.(playedData)
		if data.err != nil {
			m.setStatus(tasks.PlaybackRemedy(data.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("▶ Playing %s", formatter.TrackLine(data.track)), false)
		return m, tea.Tick(tasks.RecentRefreshDelay, func(time.Time) tea.Msg { return refreshMsg() })

	case MsgRefresh:
		return m, m.pollNowPlaying()

	case MsgTrackAdded:
		data := msg.data.(addedData)
		m.setStatus(addStatus(data.result, data.err))
		return m, nil

	case MsgStateSaved:
		if err, ok := msg.data.(error); ok && err != nil {
			m.setStatus(fmt.Sprintf("Could not save selection: %v", err), true)
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case ProfileListView:
		body = m.renderList(m.profileList, m.keys.enter, m.keys.refresh, m.keys.quit)
	case PlaylistListView:
		body = m.renderList(m.playlistList, m.keys.enter, m.keys.add, m.keys.back, m.keys.quit)
	case TrackListView:
		body = m.renderList(m.trackList, m.keys.play, m.keys.add, m.keys.back, m.keys.quit)
	}

	sections := []string{m.renderNowPlaying(), body}
	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.warn
		}
		sections = append(sections, style.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) handleProfileListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.setStatus("Refreshing...", false)
		return m, tea.Batch(m.loadLibrary(), m.pollNowPlaying())
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.profileList.SelectedItem().(profileItem); ok {
			m.openProfile(item.profile, "")
			return m, m.saveState()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.profileList, cmd = m.profileList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ProfileListView
		m.selectedPlaylist = nil
		return m, m.saveState()
	case key.Matches(msg, m.keys.add):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.addNowPlaying(item.playlist.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, tea.Batch(m.openPlaylist(item.playlist), m.saveState())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.play):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.playTrack(item.track)
		}
		return m, nil
	case key.Matches(msg, m.keys.add):
		if m.selectedPlaylist != nil {
			return m, m.addNowPlaying(m.selectedPlaylist.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ProfileListView:
		m.profileList, cmd = m.profileList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case PlaylistListView:
		return &m.playlistList
	case TrackListView:
		return &m.trackList
	default:
		return &m.profileList
	}
}

// openProfile shows the playlists of profile (every playlist when nil), selecting playlistID when it is present.
func (m *Model) openProfile(profile *models.Profile, playlistID string) {
	m.selectedProfile = profile

	filtered := m.playlists
	title := "All playlists"
	if profile != nil {
		filtered = filters.FilterPlaylistsByProfile(m.playlists, profile)
		title = profile.Name()
		if profile.Color() != "" {
			title = styles.As(title, lipgloss.Color(profile.Color()))
		}
	}

	items := make([]list.Item, len(filtered))
	selected := 0
	current := filters.ResolveSelection(filtered, playlistID)
	for i, pl := range filtered {
		items[i] = playlistItem{playlist: pl}
		if pl.ID == current {
			selected = i
		}
	}
	m.playlistList = m.newList(title, items)
	m.playlistList.Select(selected)
	m.view = PlaylistListView
}

func (m *Model) openPlaylist(playlist models.Playlist) tea.Cmd {
	m.selectedPlaylist = &playlist
	m.trackList = m.newList(fmt.Sprintf("Loading '%s'...", playlist.Name), nil)
	m.view = TrackListView
	return m.fetchTracks(playlist.ID)
}

// restore reopens the profile and playlist remembered in state. Unknown ids fall back to the profile list.
func (m *Model) restore(state *models.UIState) tea.Cmd {
	if state == nil || state.CurrentView != models.ViewPlaylists {
		return nil
	}

	var profile *models.Profile
	if state.SelectedProfileID != "" {
		for i, p := range m.allProfiles {
			if p.ID() == state.SelectedProfileID {
				profile = m.allProfiles[i]
				m.profileList.Select(i + 1)
				break
			}
		}
		if profile == nil {
			return nil
		}
	}

	m.openProfile(profile, state.SelectedPlaylistID)
	return nil
}

func (m *Model) setProfileItems() {
	items := make([]list.Item, 0, len(m.allProfiles)+1)
	items = append(items, profileItem{count: len(m.playlists)})

	groups := filters.GroupPlaylistsByProfiles(m.playlists, m.allProfiles)
	for _, p := range m.allProfiles {
		items = append(items, profileItem{profile: p, count: len(groups[p.ID()])})
	}
	m.profileList = m.newList("Profiles", items)
}

func (m *Model) newList(title string, items []list.Item) list.Model {
	if items == nil {
		items = []list.Item{}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetSize(m.listSize())
	return l
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 20), max(m.height-10, 5)
}

func (m *Model) resizeLists() {
	w, h := m.listSize()
	m.profileList.SetSize(w, h)
	m.playlistList.SetSize(w, h)
	m.trackList.SetSize(w, h)
}

func (m *Model) setStatus(status string, isErr bool) {
	m.status = status
	m.statusErr = isErr
}

func (m *Model) currentState() *models.UIState {
	state := models.DefaultUIState(LocalUser)
	if m.view != ProfileListView {
		state.CurrentView = models.ViewPlaylists
	}
	if m.selectedProfile != nil {
		state.SelectedProfileID = m.selectedProfile.ID()
	}
	if m.selectedPlaylist != nil {
		state.SelectedPlaylistID = m.selectedPlaylist.ID
	}
	return state
}

func (m *Model) saveState() tea.Cmd {
	if m.store == nil {
		return nil
	}
	state := m.currentState()
	return func() tea.Msg {
		return stateSavedMsg(m.store.Put(state))
	}
}

func (m *Model) loadLibrary() tea.Cmd {
	return func() tea.Msg {
		var (
			profiles []*models.Profile
			state    *models.UIState
			err      error
		)
		if m.profiles != nil {
			if profiles, err = m.profiles.List(nil); err != nil {
				return libraryLoadedMsg(nil, nil, nil, fmt.Errorf("failed to load profiles: %w", err))
			}
		}
		if m.store != nil {
			if state, err = m.store.Get(LocalUser); err != nil {
				return libraryLoadedMsg(nil, nil, nil, fmt.Errorf("failed to load saved selection: %w", err))
			}
		}
		return libraryLoadedMsg(profiles, m.spotify.UserPlaylists(m.ctx), state, nil)
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		return tracksFetchedMsg(playlistID, m.spotify.PlaylistTracks(m.ctx, playlistID))
	}
}

func (m *Model) pollNowPlaying() tea.Cmd {
	return func() tea.Msg {
		current, ran := m.poller.Poll(m.ctx)
		return nowPlayingMsg(current, ran)
	}
}

func (m *Model) scheduleTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg() })
}

func (m *Model) playTrack(track models.Track) tea.Cmd {
	m.setStatus(fmt.Sprintf("Starting %s...", formatter.TrackLine(track)), false)
	return func() tea.Msg {
		return playedMsg(track, m.spotify.PlayTrack(m.ctx, track.URI))
	}
}

func (m *Model) addNowPlaying(playlistID string) tea.Cmd {
	m.setStatus("Adding now playing track...", false)
	return func() tea.Msg {
		result, err := m.engine.AddNowPlaying(m.ctx, nil, playlistID)
		return trackAddedMsg(result, err)
	}
}

func addStatus(result *tasks.AddResult, err error) (string, bool) {
	if err != nil {
		return fmt.Sprintf("Failed to add track: %v", err), true
	}

	switch result.Outcome {
	case tasks.Added:
		return fmt.Sprintf("✓ Added %s", formatter.TrackLine(*result.Track)), false
	case tasks.AlreadyPresent:
		return fmt.Sprintf("%s is already in this playlist", formatter.TrackLine(*result.Track)), false
	case tasks.NothingPlaying:
		return "Nothing is playing right now", true
	default:
		return "Failed to add track to playlist", true
	}
}

func (m *Model) renderNowPlaying() string {
	cp := m.nowPlaying
	if cp == nil || cp.Track == nil {
		return styles.banner.Render(styles.help.Render("Nothing playing"))
	}

	icon := "⏸"
	if cp.IsPlaying {
		icon = "▶"
	}
	line := fmt.Sprintf("%s %s  %s", icon, formatter.TrackLine(*cp.Track),
		formatter.FormatProgress(cp.ProgressMS, cp.Track.DurationMS))
	return styles.banner.Render(line)
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	helpView := m.help.ShortHelpView(keys)
	return strings.Join([]string{l.View(), helpView}, "\n\n")
}
