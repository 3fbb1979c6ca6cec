// package filters matches playlists against music profiles by keyword
package filters

import (
	"strings"

	"github.com/desertthunder/playdeck/internal/models"
)

// Keyworded is anything carrying a profile's keyword list. [*models.Profile] satisfies it.
type Keyworded interface {
	Keywords() []string
}

// Matches reports whether any non-blank keyword is a case-insensitive substring of name.
func Matches(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// FilterPlaylistsByProfile returns the playlists whose name contains at least one of the profile's keywords.
//
// Input order is preserved. A profile without keywords matches nothing; the result is never nil.
func FilterPlaylistsByProfile(playlists []models.Playlist, profile Keyworded) []models.Playlist {
	filtered := []models.Playlist{}
	if profile == nil {
		return filtered
	}

	keywords := profile.Keywords()
	if len(keywords) == 0 {
		return filtered
	}

	for _, p := range playlists {
		if Matches(p.Name, keywords) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// GroupPlaylistsByProfiles filters playlists once per profile, keyed by profile id.
//
// Groups may overlap, and a profile with no matches maps to an empty slice.
func GroupPlaylistsByProfiles(playlists []models.Playlist, profiles []*models.Profile) map[string][]models.Playlist {
	groups := make(map[string][]models.Playlist, len(profiles))
	for _, profile := range profiles {
		groups[profile.ID()] = FilterPlaylistsByProfile(playlists, profile)
	}
	return groups
}

// NormalizeKeywords lower-cases and trims each keyword, dropping blanks. Duplicates are kept.
func NormalizeKeywords(raw []string) []string {
	keywords := make([]string, 0, len(raw))
	for _, k := range raw {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// ParseKeywords splits a comma separated list and normalizes it.
func ParseKeywords(csv string) []string {
	return NormalizeKeywords(strings.Split(csv, ","))
}

// ResolveSelection keeps currentID when it is among filtered, otherwise falls back to the first filtered playlist.
// It returns "" when filtered is empty.
func ResolveSelection(filtered []models.Playlist, currentID string) string {
	for _, p := range filtered {
		if p.ID == currentID {
			return currentID
		}
	}
	if len(filtered) > 0 {
		return filtered[0].ID
	}
	return ""
}
