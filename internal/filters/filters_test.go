package filters

import (
	"reflect"
	"testing"

	"github.com/desertthunder/playdeck/internal/models"
	th "github.com/desertthunder/playdeck/internal/testing"
)

func profile(id string, keywords ...string) *models.Profile {
	p := models.NewProfile("profile "+id, keywords, "")
	p.SetID(id)
	return p
}

func names(playlists []models.Playlist) []string {
	out := []string{}
	for _, p := range playlists {
		out = append(out, p.Name)
	}
	return out
}

func TestFilterPlaylistsByProfile(t *testing.T) {
	playlists := th.Playlists("Frozen Favorites", "Workout Mix", "Disney Hits", "Pop-Up Shop Vibes")

	tests := []struct {
		name     string
		keywords []string
		want     []string
	}{
		{name: "Multiple Keywords", keywords: []string{"frozen", "disney"}, want: []string{"Frozen Favorites", "Disney Hits"}},
		{name: "Substring Semantics", keywords: []string{"pop"}, want: []string{"Pop-Up Shop Vibes"}},
		{name: "Case Insensitive", keywords: []string{"WORKOUT"}, want: []string{"Workout Mix"}},
		{name: "Padded Keyword", keywords: []string{"  mix "}, want: []string{"Workout Mix"}},
		{name: "No Keywords", keywords: nil, want: []string{}},
		{name: "Blank Keywords Only", keywords: []string{"", "   "}, want: []string{}},
		{name: "No Match", keywords: []string{"jazz"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPlaylistsByProfile(playlists, profile("x", tt.keywords...))
			if got == nil {
				t.Fatal("result should never be nil")
			}
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("got %v, want %v", names(got), tt.want)
			}
		})
	}

	t.Run("Nil Profile", func(t *testing.T) {
		if got := FilterPlaylistsByProfile(playlists, nil); got == nil || len(got) != 0 {
			t.Errorf("expected empty result, got %v", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		p := profile("x", "frozen", "disney")
		once := FilterPlaylistsByProfile(playlists, p)
		twice := FilterPlaylistsByProfile(once, p)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("filtering twice changed the result: %v vs %v", names(once), names(twice))
		}
	})

	t.Run("Empty Playlists", func(t *testing.T) {
		if got := FilterPlaylistsByProfile(nil, profile("x", "frozen")); len(got) != 0 {
			t.Errorf("expected empty result, got %v", got)
		}
	})
}

func TestGroupPlaylistsByProfiles(t *testing.T) {
	playlists := th.Playlists("Frozen Favorites", "Workout Mix", "Disney Hits")
	profiles := []*models.Profile{
		profile("kids", "frozen", "disney"),
		profile("gym", "workout"),
		profile("all", "i"),
		profile("none"),
	}

	groups := GroupPlaylistsByProfiles(playlists, profiles)

	if len(groups) != len(profiles) {
		t.Fatalf("expected %d groups, got %d", len(profiles), len(groups))
	}

	for _, p := range profiles {
		want := FilterPlaylistsByProfile(playlists, p)
		if !reflect.DeepEqual(groups[p.ID()], want) {
			t.Errorf("group %s = %v, want %v", p.ID(), names(groups[p.ID()]), names(want))
		}
	}

	if len(groups["all"]) != 3 {
		t.Errorf("groups may overlap: expected 3 playlists for 'all', got %d", len(groups["all"]))
	}
	if groups["none"] == nil || len(groups["none"]) != 0 {
		t.Errorf("expected empty group for profile without keywords, got %v", groups["none"])
	}
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" Frozen ", "", "DISNEY", "  ", "frozen"})
	want := []string{"frozen", "disney", "frozen"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := NormalizeKeywords(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "frozen, Disney ,moana", want: []string{"frozen", "disney", "moana"}},
		{in: "", want: []string{}},
		{in: " , ,", want: []string{}},
		{in: "workout", want: []string{"workout"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseKeywords(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseKeywords(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveSelection(t *testing.T) {
	filtered := th.Playlists("A", "B", "C")

	tests := []struct {
		name    string
		list    []models.Playlist
		current string
		want    string
	}{
		{name: "Keeps Current", list: filtered, current: "p1", want: "p1"},
		{name: "Falls Back To First", list: filtered, current: "gone", want: "p0"},
		{name: "No Current", list: filtered, current: "", want: "p0"},
		{name: "Empty List", list: nil, current: "p1", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSelection(tt.list, tt.current); got != tt.want {
				t.Errorf("ResolveSelection() = %q, want %q", got, tt.want)
			}
		})
	}
}
