// package models defines the data model for the playdeck dashboard
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models in playdeck.
// Implementations include Profile.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is a normalized track as shown on the dashboard.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"` // all artist names joined with ", "
	Album      string `json:"album"`
	ImageURL   string `json:"imageUrl"`
	DurationMS int    `json:"durationMs"`
	URI        string `json:"uri"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// Duration returns the track length as a [time.Duration].
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// Playlist is a normalized playlist summary.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl,omitempty"`
	TrackCount int    `json:"trackCount"`
	URI        string `json:"uri"`
}

// PlaylistExport is a playlist together with every one of its tracks.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// CurrentlyPlaying is a transient playback snapshot.
type CurrentlyPlaying struct {
	Track      *Track `json:"track"`
	IsPlaying  bool   `json:"isPlaying"`
	ProgressMS int    `json:"progressMs"`
	Timestamp  int64  `json:"timestamp"`
}

// Progress returns the playback position as a [time.Duration].
func (c CurrentlyPlaying) Progress() time.Duration {
	return time.Duration(c.ProgressMS) * time.Millisecond
}

// TimeRange selects the window used for top-track statistics.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// ParseTimeRange validates s, returning [ShortTerm] for the empty string.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return ShortTerm, nil
	case ShortTerm, MediumTerm, LongTerm:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("invalid time range %q: expected short_term, medium_term or long_term", s)
	}
}

// View names the dashboard panel that was last open.
type View string

const (
	ViewHome      View = "home"
	ViewPlaylists View = "playlists"
	ViewSearch    View = "search"
)

// UIState is the dashboard selection remembered between sessions.
type UIState struct {
	UserID             string    `json:"userId"`
	SelectedProfileID  string    `json:"selectedProfileId"`
	SelectedPlaylistID string    `json:"selectedPlaylistId"`
	CurrentView        View      `json:"currentView"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// DefaultUIState returns the state used when nothing has been saved for userID.
func DefaultUIState(userID string) *UIState {
	return &UIState{UserID: userID, CurrentView: ViewHome}
}

// Profile is a named set of keywords used to group playlists by name.
type Profile struct {
	id        string
	sequence  int
	name      string
	keywords  []string
	color     string
	icon      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewProfile creates a [Profile] with creation timestamps set to now.
func NewProfile(name string, keywords []string, color string) *Profile {
	now := time.Now()
	return &Profile{
		name:      name,
		keywords:  keywords,
		color:     color,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *Profile) ID() string             { return p.id }
func (p *Profile) Sequence() int          { return p.sequence }
func (p *Profile) Name() string           { return p.name }
func (p *Profile) Keywords() []string     { return append([]string(nil), p.keywords...) }
func (p *Profile) Color() string          { return p.color }
func (p *Profile) Icon() string           { return p.icon }
func (p *Profile) CreatedAt() time.Time   { return p.createdAt }
func (p *Profile) UpdatedAt() time.Time   { return p.updatedAt }
func (p *Profile) DeletedAt() *time.Time  { return p.deletedAt }
func (p *Profile) SetID(id string)        { p.id = id }
func (p *Profile) SetSequence(seq int)    { p.sequence = seq }
func (p *Profile) SetName(name string)    { p.name = name }
func (p *Profile) SetKeywords(k []string) { p.keywords = k }
func (p *Profile) SetColor(c string)      { p.color = c }
func (p *Profile) SetIcon(i string)       { p.icon = i }

func (p *Profile) SetCreatedAt(t time.Time)  { p.createdAt = t }
func (p *Profile) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *Profile) SetDeletedAt(t *time.Time) { p.deletedAt = t }

// Validate requires an id and a non-blank name.
func (p *Profile) Validate() error {
	if p.id == "" {
		return fmt.Errorf("profile id is required")
	}
	if strings.TrimSpace(p.name) == "" {
		return fmt.Errorf("profile name is required")
	}
	return nil
}

type profileJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Keywords  []string  `json:"keywords"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON exposes the profile's public fields.
func (p *Profile) MarshalJSON() ([]byte, error) {
	keywords := p.keywords
	if keywords == nil {
		keywords = []string{}
	}
	return json.Marshal(profileJSON{
		ID:        p.id,
		Name:      p.name,
		Keywords:  keywords,
		Color:     p.color,
		Icon:      p.icon,
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
	})
}

// EventKind identifies the write that produced a [ProfileEvent].
type EventKind string

const (
	ProfileCreated EventKind = "created"
	ProfileUpdated EventKind = "updated"
	ProfileDeleted EventKind = "deleted"
)

// ProfileEvent is published after a successful profile write.
type ProfileEvent struct {
	Kind    EventKind
	Profile *Profile
}

// ChannelKind is the provider a channel link points at.
type ChannelKind string

const (
	ChannelSpotify ChannelKind = "spotify"
	ChannelYouTube ChannelKind = "youtube"
)

// Channel is a saved link to a music channel, artist page or show.
type Channel struct {
	id        string
	sequence  int
	name      string
	kind      ChannelKind
	url       string
	thumbnail string
	featured  bool
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewChannel creates a [Channel] with creation timestamps set to now.
func NewChannel(name string, kind ChannelKind, url string) *Channel {
	now := time.Now()
	return &Channel{name: name, kind: kind, url: url, createdAt: now, updatedAt: now}
}

func (c *Channel) ID() string            { return c.id }
func (c *Channel) Sequence() int         { return c.sequence }
func (c *Channel) Name() string          { return c.name }
func (c *Channel) Kind() ChannelKind     { return c.kind }
func (c *Channel) URL() string           { return c.url }
func (c *Channel) Thumbnail() string     { return c.thumbnail }
func (c *Channel) Featured() bool        { return c.featured }
func (c *Channel) CreatedAt() time.Time  { return c.createdAt }
func (c *Channel) UpdatedAt() time.Time  { return c.updatedAt }
func (c *Channel) DeletedAt() *time.Time { return c.deletedAt }

func (c *Channel) SetID(id string)           { c.id = id }
func (c *Channel) SetSequence(seq int)       { c.sequence = seq }
func (c *Channel) SetName(name string)       { c.name = name }
func (c *Channel) SetURL(url string)         { c.url = url }
func (c *Channel) SetThumbnail(t string)     { c.thumbnail = t }
func (c *Channel) SetFeatured(f bool)        { c.featured = f }
func (c *Channel) SetCreatedAt(t time.Time)  { c.createdAt = t }
func (c *Channel) SetUpdatedAt(t time.Time)  { c.updatedAt = t }
func (c *Channel) SetDeletedAt(t *time.Time) { c.deletedAt = t }

// Validate requires an id, a name, a known kind and a URL.
func (c *Channel) Validate() error {
	if c.id == "" {
		return fmt.Errorf("channel id is required")
	}
	if strings.TrimSpace(c.name) == "" {
		return fmt.Errorf("channel name is required")
	}
	if c.kind != ChannelSpotify && c.kind != ChannelYouTube {
		return fmt.Errorf("invalid channel kind %q: expected spotify or youtube", c.kind)
	}
	if c.url == "" {
		return fmt.Errorf("channel url is required")
	}
	return nil
}

// MarshalJSON exposes the channel's public fields.
func (c *Channel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		Type      ChannelKind `json:"type"`
		URL       string      `json:"url"`
		Thumbnail string      `json:"thumbnail,omitempty"`
		Featured  bool        `json:"isFeatured,omitempty"`
	}{c.id, c.name, c.kind, c.url, c.thumbnail, c.featured})
}
