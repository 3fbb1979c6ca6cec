package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
	th "github.com/desertthunder/playdeck/internal/testing"
)

func sampleExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:         "test123",
			Name:       "Test Playlist",
			TrackCount: 2,
			URI:        "spotify:playlist:test123",
		},
		Tracks: []models.Track{
			{
				ID:         "track1",
				Name:       "Song One",
				Artist:     "Artist One",
				Album:      "Album One",
				DurationMS: 180000,
				URI:        "spotify:track:track1",
			},
			{
				ID:         "track2",
				Name:       "Song Two",
				Artist:     "Artist Two",
				DurationMS: 240000,
				URI:        "spotify:track:track2",
			},
		},
	}
}

func TestFormatting(t *testing.T) {
	t.Run("FormatDuration", func(t *testing.T) {
		tests := []struct {
			ms   int
			want string
		}{
			{0, "0:00"},
			{999, "0:00"},
			{1000, "0:01"},
			{65000, "1:05"},
			{180000, "3:00"},
			{3_725_000, "62:05"},
			{-5, "0:00"},
		}
		for _, tt := range tests {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		}
	})

	t.Run("FormatProgress", func(t *testing.T) {
		if got := FormatProgress(65000, 210000); got != "1:05 / 3:30" {
			t.Errorf("FormatProgress() = %q", got)
		}
	})

	t.Run("TotalDuration", func(t *testing.T) {
		if got := TotalDuration(sampleExport().Tracks); got != 420*time.Second {
			t.Errorf("TotalDuration() = %v", got)
		}
		if got := TotalDuration(nil); got != 0 {
			t.Errorf("TotalDuration(nil) = %v", got)
		}
	})

	t.Run("FormatCount", func(t *testing.T) {
		if got := FormatCount(1234567); got != "1,234,567" {
			t.Errorf("FormatCount() = %q", got)
		}
	})

	t.Run("FormatBytes", func(t *testing.T) {
		if got := FormatBytes(2048); got != "2.0 KiB" {
			t.Errorf("FormatBytes() = %q", got)
		}
		if got := FormatBytes(-1); got != "0 B" {
			t.Errorf("FormatBytes(-1) = %q", got)
		}
	})

	t.Run("RelativeTime", func(t *testing.T) {
		if got := RelativeTime(time.Time{}); got != "never" {
			t.Errorf("RelativeTime(zero) = %q", got)
		}
		if got := RelativeTime(time.Now().Add(-3 * time.Hour)); got != "3 hours ago" {
			t.Errorf("RelativeTime() = %q", got)
		}
	})

	t.Run("TrackLine", func(t *testing.T) {
		if got := TrackLine(models.Track{Name: "Song", Artist: "A, B"}); got != "A, B - Song" {
			t.Errorf("TrackLine() = %q", got)
		}
		if got := TrackLine(models.Track{Name: "Song"}); got != "Song" {
			t.Errorf("TrackLine() without artist = %q", got)
		}
	})
}

func TestExporters(t *testing.T) {
	export := sampleExport()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(export)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Name,Artist,Album,Duration,URI") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1,Song One,Artist One,Album One,180000,spotify:track:track1") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToCSV quotes fields", func(t *testing.T) {
		quoted := &models.PlaylistExport{
			Tracks: []models.Track{{ID: "x", Name: "Hello, World", Artist: "A, B"}},
		}
		data, err := ExportToCSV(quoted)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), `"Hello, World","A, B"`) {
			t.Errorf("CSV did not quote fields: %s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			for _, want := range []string{
				"# Test Playlist",
				"**Tracks**: 2",
				"**Length**: 7m0s",
				"**URI**: `spotify:playlist:test123`",
				"## Tracks",
				"1. Artist One - Song One (Album One) [3:00]",
				"2. Artist Two - Song Two [4:00]",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}

			if strings.Contains(output, "![Cover]") {
				t.Errorf("Markdown should not contain a cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("Text missing track listing")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(export.Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["id"] != "test123" || decoded["name"] != "Test Playlist" {
			t.Errorf("unexpected metadata: %v", decoded)
		}
		if _, ok := decoded["tracks"]; ok {
			t.Errorf("metadata should not include tracks")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		_, err := DownloadImage("")
		if err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})
}

func TestWriters(t *testing.T) {
	export := sampleExport()

	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(export, "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "test123_tracks.csv" {
				t.Errorf("Expected tracks file 'test123_tracks.csv', got '%s'", result.TracksFile)
			}
			if result.MetadataFile != "test123_metadata.json" {
				t.Errorf("Expected metadata file 'test123_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)

			csvContent := th.MustReadFile(t, result.TracksFile)
			if !strings.Contains(csvContent, "ID,Name,Artist,Album,Duration,URI") {
				t.Errorf("CSV missing headers")
			}

			metadataContent := th.MustReadFile(t, result.MetadataFile)
			if !strings.Contains(metadataContent, "test123") || !strings.Contains(metadataContent, "Test Playlist") {
				t.Errorf("Metadata JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom_export")

			result, err := WriteCSVExport(export, base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != base+"_tracks.csv" {
				t.Errorf("unexpected tracks file %q", result.TracksFile)
			}
			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(export, "", "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Directory != "test123" {
				t.Errorf("Expected directory 'test123', got '%s'", result.Directory)
			}
			th.AssertDirExists(t, result.Directory)

			readmePath := filepath.Join(result.Directory, "README.md")
			th.AssertFileExists(t, readmePath)

			content := th.MustReadFile(t, readmePath)
			if !strings.Contains(content, "1. Artist One - Song One (Album One)") {
				t.Errorf("Markdown missing track listing")
			}
			if result.CoverImage != "" {
				t.Errorf("Expected no cover image, got '%s'", result.CoverImage)
			}
			if len(result.Files) != 1 {
				t.Errorf("expected 1 file, got %v", result.Files)
			}
		})

		t.Run("UnreachableCover", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "custom_playlist")

			result, err := WriteMarkdownExport(export, dir, "http://127.0.0.1:0/cover.jpg")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.CoverImage != "" {
				t.Errorf("cover should be skipped when download fails")
			}
			th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteTextExport(export, "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if path != "test123_tracks.txt" {
				t.Errorf("Expected 'test123_tracks.txt', got '%s'", path)
			}

			content := th.MustReadFile(t, path)
			if !strings.Contains(content, "1. Artist One - Song One") {
				t.Errorf("Text missing track listing")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			want := filepath.Join(t.TempDir(), "my_playlist.txt")

			path, err := WriteTextExport(export, want)
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}
			if path != want {
				t.Errorf("Expected %q, got %q", want, path)
			}
			th.AssertFileExists(t, path)
		})
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteJSONExport(export, "")
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		if path != "test123.json" {
			t.Errorf("Expected 'test123.json', got '%s'", path)
		}

		var decoded models.PlaylistExport
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Playlist.ID != "test123" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected export: %+v", decoded)
		}
		if decoded.Tracks[0].DurationMS != 180000 {
			t.Errorf("durationMs not preserved: %d", decoded.Tracks[0].DurationMS)
		}
	})

	t.Run("WriteBulkExportManifest", func(t *testing.T) {
		t.Run("SuccessfulExport", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.json")

			manifest := Manifest{
				Format:            "csv",
				Profile:           "Kids",
				TotalPlaylists:    2,
				SuccessfulExports: 2,
				Playlists: []ManifestEntry{
					{PlaylistID: "playlist1", PlaylistName: "My Playlist 1", Status: "success", Files: []string{"playlist1_tracks.csv"}},
					{PlaylistID: "playlist2", PlaylistName: "My Playlist 2", Status: "success", Files: []string{"playlist2_tracks.csv"}},
				},
			}

			if err := WriteBulkExportManifest(manifest, path); err != nil {
				t.Fatalf("WriteBulkExportManifest failed: %v", err)
			}

			var decoded Manifest
			if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
				t.Fatalf("invalid manifest: %v", err)
			}
			if decoded.Format != "csv" || decoded.Profile != "Kids" {
				t.Errorf("unexpected header: %+v", decoded)
			}
			if decoded.TotalPlaylists != 2 || decoded.SuccessfulExports != 2 || decoded.FailedExports != 0 {
				t.Errorf("unexpected counts: %+v", decoded)
			}
			if decoded.ExportedAt.IsZero() {
				t.Errorf("exported_at should be filled in")
			}
			if decoded.Playlists[0].PlaylistName != "My Playlist 1" {
				t.Errorf("unexpected entry: %+v", decoded.Playlists[0])
			}
		})

		t.Run("WithFailedExports", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.json")

			manifest := Manifest{
				Format:            "markdown",
				TotalPlaylists:    2,
				SuccessfulExports: 1,
				FailedExports:     1,
				Playlists: []ManifestEntry{
					{PlaylistID: "playlist1", PlaylistName: "Success Playlist", Status: "success"},
					{PlaylistID: "playlist2", PlaylistName: "Failed Playlist", Status: "failed", Error: "network timeout"},
				},
			}

			if err := WriteBulkExportManifest(manifest, path); err != nil {
				t.Fatalf("WriteBulkExportManifest failed: %v", err)
			}

			content := th.MustReadFile(t, path)
			if !strings.Contains(content, `"status": "failed"`) {
				t.Errorf("Manifest missing failed status")
			}
			if !strings.Contains(content, `"error": "network timeout"`) {
				t.Errorf("Manifest missing error message")
			}
			if !strings.Contains(content, `"failed_exports": 1`) {
				t.Errorf("Manifest missing failed_exports count")
			}
		})

		t.Run("EmptyPlaylists", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.json")

			if err := WriteBulkExportManifest(Manifest{Format: "json"}, path); err != nil {
				t.Fatalf("WriteBulkExportManifest failed: %v", err)
			}
			if !strings.Contains(th.MustReadFile(t, path), `"playlists": []`) {
				t.Errorf("empty manifest should encode playlists as []")
			}
		})
	})
}
