package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
	th "github.com/desertthunder/playdeck/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

type testRunner struct {
	*Runner
	svc    *th.MockService
	output *bytes.Buffer
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := &th.MockService{
		Playlists: th.Playlists("Gym Hits", "Chill Vibes", "Morning Run"),
		Tracks: map[string][]models.Track{
			"p0": {th.Track("1"), th.Track("2")},
			"p2": {th.Track("3")},
		},
		Recent:  []models.Track{th.Track("r1"), th.Track("r2"), th.Track("r3")},
		Top:     []models.Track{th.Track("t1")},
		Results: []models.Track{th.Track("s1")},
	}
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Spotify: svc,
		DB:      db,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
	})
	return &testRunner{Runner: runner, svc: svc, output: output}
}

func (tr *testRunner) run(t *testing.T, args ...string) error {
	t.Helper()
	tr.output.Reset()
	app := &cli.Command{
		Name:      "playdeck",
		Commands:  tr.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"playdeck"}, args...))
}

func (tr *testRunner) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := tr.run(t, args...); err != nil {
		t.Fatalf("%v: unexpected error: %v", args, err)
	}
	return tr.output.String()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &th.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Spotify: spotify,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be set")
			}
			if runner.oauth != nil {
				t.Error("expected no oauth client for a mock service")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with a spotify client keeps it for oauth", func(t *testing.T) {
			svc, err := services.NewSpotifyService(map[string]string{"client_id": "id", "client_secret": "secret"})
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			runner := NewRunner(RunnerOpts{Spotify: svc})

			if runner.oauth != svc {
				t.Error("expected oauth client to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := th.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "spotify", "dashboard", "profiles", "channels", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"

			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})

			token := &oauth2.Token{AccessToken: "new_access_token", RefreshToken: "new_refresh_token"}
			if err := runner.saveTokens(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loadedConfig.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loadedConfig.Credentials.Spotify.AccessToken)
			}
			if loadedConfig.Credentials.Spotify.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loadedConfig.Credentials.Spotify.RefreshToken)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/test.toml"})
			runner.config = nil

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})

			if err == nil {
				t.Fatal("expected error with nil config")
			}
			if !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveTokens(&oauth2.Token{AccessToken: "new_token"}); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}
			if config.Credentials.Spotify.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config:     shared.DefaultConfig(),
				ConfigPath: filepath.Join(t.TempDir(), "missing", "config.toml"),
			})

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})

			if err == nil {
				t.Fatal("expected error with invalid path")
			}
			if !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			err := runner.saveTokens(nil)

			if err == nil {
				t.Fatal("expected error when Update fails with nil token")
			}
			if !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Errorf("expected update error, got %v", err)
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput in chain, got %v", err)
			}
		})
	})
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantAddr string
		wantPath string
		wantErr  bool
	}{
		{"default", "", "127.0.0.1:3000", "/callback", false},
		{"custom path", "http://localhost:8080/auth/done", "localhost:8080", "/auth/done", false},
		{"no path", "http://localhost:9000", "localhost:9000", "/callback", false},
		{"no host", "/callback", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, path, err := callbackAddr(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if addr != tt.wantAddr || path != tt.wantPath {
				t.Errorf("expected %s%s, got %s%s", tt.wantAddr, tt.wantPath, addr, path)
			}
		})
	}
}

func TestSpotifyCommands(t *testing.T) {
	t.Run("missing service", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		tr := &testRunner{Runner: runner, output: runner.output.(*bytes.Buffer)}

		err := tr.run(t, "spotify", "now")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("now playing", func(t *testing.T) {
		tr := newTestRunner(t)

		if out := tr.mustRun(t, "spotify", "now"); !strings.Contains(out, "Nothing playing") {
			t.Errorf("expected nothing playing, got %q", out)
		}

		track := th.Track("9")
		tr.svc.SetPlaying(&models.CurrentlyPlaying{Track: &track, IsPlaying: true, ProgressMS: 30000})
		out := tr.mustRun(t, "spotify", "now")
		if !strings.Contains(out, "▶ Playing: Artist - Song 9") || !strings.Contains(out, "0:30 / 3:00") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("recent honors limit", func(t *testing.T) {
		tr := newTestRunner(t)

		out := tr.mustRun(t, "spotify", "recent", "--limit", "2")
		if !strings.Contains(out, "Recently played (2)") || strings.Contains(out, "Song r3") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("top rejects unknown range", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run(t, "spotify", "top", "--range", "forever")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("search prints JSON", func(t *testing.T) {
		tr := newTestRunner(t)

		out := tr.mustRun(t, "spotify", "search", "--json", "--pretty=false", "song")
		if !strings.Contains(out, `"uri":"spotify:track:s1"`) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("tracks export to csv", func(t *testing.T) {
		tr := newTestRunner(t)
		base := filepath.Join(t.TempDir(), "gym")

		out := tr.mustRun(t, "spotify", "tracks", "--id", "p0", "--format", "csv", "--output", base)

		th.AssertFileExists(t, base+"_tracks.csv")
		th.AssertFileExists(t, base+"_metadata.json")
		if !strings.Contains(out, "Playlist: Gym Hits") || !strings.Contains(out, "Tracks: 2") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("tracks rejects unknown format", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run(t, "spotify", "tracks", "--id", "p0", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("play failure prints the remedy", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.svc.PlayErr = &services.PlaybackError{Kind: shared.ErrPremiumRequired}

		err := tr.run(t, "spotify", "play", "spotify:track:1")
		if !errors.Is(err, shared.ErrPremiumRequired) {
			t.Errorf("expected ErrPremiumRequired, got %v", err)
		}
		if !strings.Contains(tr.output.String(), "Spotify Premium is required") {
			t.Errorf("expected remedy, got %q", tr.output.String())
		}
	})

	t.Run("add", func(t *testing.T) {
		tests := []struct {
			name  string
			args  []string
			want  string
			added int
		}{
			{"new track", []string{"--playlist", "p0", "--track", "spotify:track:5"}, "✓ Added spotify:track:5", 1},
			{"duplicate track", []string{"--playlist", "p0", "--track", "spotify:track:1"}, "already in the playlist", 0},
			{"nothing playing", []string{"--playlist", "p0", "--now"}, "Nothing playing", 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tr := newTestRunner(t)

				out := tr.mustRun(t, append([]string{"spotify", "add"}, tt.args...)...)
				if !strings.Contains(out, tt.want) {
					t.Errorf("expected %q in %q", tt.want, out)
				}
				if len(tr.svc.Added) != tt.added {
					t.Errorf("expected %d adds, got %d", tt.added, len(tr.svc.Added))
				}
			})
		}

		t.Run("now playing uses default playlist", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.config.Dashboard.DefaultPlaylist = "p2"
			track := th.Track("8")
			tr.svc.SetPlaying(&models.CurrentlyPlaying{Track: &track, IsPlaying: true})

			out := tr.mustRun(t, "spotify", "add", "--now")
			if !strings.Contains(out, "✓ Added Artist - Song 8") {
				t.Errorf("unexpected output %q", out)
			}
			if len(tr.svc.Added) != 1 || tr.svc.Added[0].PlaylistID != "p2" {
				t.Errorf("expected add to p2, got %v", tr.svc.Added)
			}
		})

		t.Run("missing playlist", func(t *testing.T) {
			tr := newTestRunner(t)

			err := tr.run(t, "spotify", "add", "--track", "spotify:track:1")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("contains", func(t *testing.T) {
		tr := newTestRunner(t)

		if out := tr.mustRun(t, "spotify", "contains", "-p", "p0", "-t", "spotify:track:2"); !strings.Contains(out, "is in the playlist") {
			t.Errorf("unexpected output %q", out)
		}
		if out := tr.mustRun(t, "spotify", "contains", "-p", "p0", "-t", "spotify:track:7"); !strings.Contains(out, "is not in the playlist") {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestDashboardCommand(t *testing.T) {
	tr := newTestRunner(t)

	out := tr.mustRun(t, "dashboard", "--json", "--pretty=false", "--recent", "2")
	for _, want := range []string{`"nowPlaying":null`, `"topTracks":[`, `"recentlyPlayed":[`, `"playlists":[`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %q", want, out)
		}
	}
	if strings.Contains(out, "spotify:track:r3") {
		t.Errorf("expected recent section to honor --recent, got %q", out)
	}

	out = tr.mustRun(t, "dashboard")
	for _, want := range []string{"Now Playing", "Top Tracks", "Recently Played", "Found 3 playlists"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestProfileCommands(t *testing.T) {
	tr := newTestRunner(t)

	out := tr.mustRun(t, "profiles", "create", "--keywords", "Gym, run", "--color", "#FF5500", "Workout")
	if !strings.Contains(out, "✓ Created profile Workout") || !strings.Contains(out, "gym, run") {
		t.Errorf("unexpected output %q", out)
	}
	tr.mustRun(t, "profiles", "create", "--keywords", "chill", "Chill")

	t.Run("list", func(t *testing.T) {
		out := tr.mustRun(t, "profiles", "list")
		if !strings.Contains(out, "Found 2 profiles") || !strings.Contains(out, "Updated: ") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("match", func(t *testing.T) {
		out := tr.mustRun(t, "profiles", "match", "Workout")
		if !strings.Contains(out, "Gym Hits") || !strings.Contains(out, "Morning Run") || strings.Contains(out, "Chill Vibes") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("groups", func(t *testing.T) {
		out := tr.mustRun(t, "profiles", "groups")
		if !strings.Contains(out, "Workout (2)") || !strings.Contains(out, "Chill (1)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("export", func(t *testing.T) {
		dir := t.TempDir()
		out := tr.mustRun(t, "profiles", "export", "--format", "json", "--output", dir, "Workout")

		if !strings.Contains(out, "Exported: 2/2") {
			t.Errorf("unexpected output %q", out)
		}
		th.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("update and delete", func(t *testing.T) {
		tr.mustRun(t, "profiles", "update", "--keywords", "lofi", "Chill")
		if out := tr.mustRun(t, "profiles", "groups"); !strings.Contains(out, "Chill (0)") {
			t.Errorf("expected updated keywords, got %q", out)
		}

		tr.mustRun(t, "profiles", "delete", "Chill")
		err := tr.run(t, "profiles", "match", "Chill")
		if !errors.Is(err, shared.ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})
}

func TestChannelCommands(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun(t, "channels", "add", "--url", "https://open.spotify.com/show/1", "--featured", "Lofi Radio")
	tr.mustRun(t, "channels", "add", "--type", "youtube", "--url", "https://youtube.com/@synth", "Synthwave")

	t.Run("list", func(t *testing.T) {
		out := tr.mustRun(t, "channels", "list")
		if !strings.Contains(out, "Found 2 channels") || !strings.Contains(out, "Lofi Radio ★") {
			t.Errorf("unexpected output %q", out)
		}

		out = tr.mustRun(t, "channels", "list", "--type", "youtube")
		if !strings.Contains(out, "Found 1 channels") || !strings.Contains(out, "Synthwave") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("search", func(t *testing.T) {
		out := tr.mustRun(t, "channels", "search", "LOFI")
		if !strings.Contains(out, "Found 1 channels") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		if err := tr.run(t, "channels", "add", "--type", "vinyl", "--url", "x", "Records"); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("remove", func(t *testing.T) {
		channels, err := tr.channelRepository()
		if err != nil {
			t.Fatalf("failed to open repository: %v", err)
		}
		all, _ := channels.List(nil)
		tr.mustRun(t, "channels", "remove", all[0].ID())

		if out := tr.mustRun(t, "channels", "list"); !strings.Contains(out, "Found 1 channels") {
			t.Errorf("unexpected output %q", out)
		}
	})
}
