// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
)

// MockService is a concurrency-safe test double for services.Service.
//
// Fields hold canned responses; Calls counts invocations per method name.
type MockService struct {
	mu sync.Mutex

	Playing   *models.CurrentlyPlaying
	Recent    []models.Track
	Top       []models.Track
	Playlists []models.Playlist
	Tracks    map[string][]models.Track // playlist id to tracks
	Results   []models.Track
	AddFails  bool
	PlayErr   error
	Delay     time.Duration // applied to every call, honoring ctx

	Calls  map[string]int
	Added  []AddCall
	Played []string
}

// AddCall records an AddTrackToPlaylist invocation.
type AddCall struct {
	PlaylistID string
	TrackURI   string
}

func (m *MockService) record(ctx context.Context, name string) bool {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
	return true
}

// CallCount returns how many times the named method ran.
func (m *MockService) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

// SetPlaying swaps the canned playback snapshot.
func (m *MockService) SetPlaying(cp *models.CurrentlyPlaying) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Playing = cp
}

func (m *MockService) CurrentlyPlaying(ctx context.Context) *models.CurrentlyPlaying {
	if !m.record(ctx, "CurrentlyPlaying") {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Playing
}

func (m *MockService) RecentlyPlayed(ctx context.Context, limit int) []models.Track {
	if !m.record(ctx, "RecentlyPlayed") {
		return []models.Track{}
	}
	return take(m.Recent, limit)
}

func (m *MockService) TopTracks(ctx context.Context, limit int, timeRange models.TimeRange) []models.Track {
	if !m.record(ctx, "TopTracks") {
		return []models.Track{}
	}
	return take(m.Top, limit)
}

func (m *MockService) UserPlaylists(ctx context.Context) []models.Playlist {
	if !m.record(ctx, "UserPlaylists") {
		return []models.Playlist{}
	}
	return append([]models.Playlist{}, m.Playlists...)
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) []models.Track {
	if !m.record(ctx, "PlaylistTracks") {
		return []models.Track{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Track{}, m.Tracks[playlistID]...)
}

func (m *MockService) IsTrackInPlaylist(ctx context.Context, playlistID, trackURI string) bool {
	for _, t := range m.PlaylistTracks(ctx, playlistID) {
		if t.URI == trackURI {
			return true
		}
	}
	return false
}

func (m *MockService) AddTrackToPlaylist(ctx context.Context, playlistID, trackURI string) bool {
	if !m.record(ctx, "AddTrackToPlaylist") || m.AddFails {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Added = append(m.Added, AddCall{PlaylistID: playlistID, TrackURI: trackURI})
	if m.Tracks == nil {
		m.Tracks = make(map[string][]models.Track)
	}
	m.Tracks[playlistID] = append(m.Tracks[playlistID], models.Track{URI: trackURI})
	return true
}

func (m *MockService) PlayTrack(ctx context.Context, trackURI string) error {
	if !m.record(ctx, "PlayTrack") {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.Played = append(m.Played, trackURI)
	return nil
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) []models.Track {
	if !m.record(ctx, "SearchTracks") {
		return []models.Track{}
	}
	return take(m.Results, limit)
}

func (m *MockService) Name() string { return "mock" }

func take(tracks []models.Track, limit int) []models.Track {
	if limit > 0 && limit < len(tracks) {
		tracks = tracks[:limit]
	}
	return append([]models.Track{}, tracks...)
}

// Track builds a minimal track with a spotify URI derived from id.
func Track(id string) models.Track {
	return models.Track{ID: id, Name: "Song " + id, Artist: "Artist", URI: "spotify:track:" + id, DurationMS: 180000}
}

// Playlists builds playlists named after names, with ids p0, p1, ...
func Playlists(names ...string) []models.Playlist {
	playlists := make([]models.Playlist, 0, len(names))
	for i, name := range names {
		id := fmt.Sprintf("p%d", i)
		playlists = append(playlists, models.Playlist{ID: id, Name: name, URI: "spotify:playlist:" + id})
	}
	return playlists
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
