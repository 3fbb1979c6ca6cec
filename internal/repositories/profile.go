package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/playdeck/internal/filters"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
)

const profileColumns = "id, sequence, name, keywords, color, icon, created_at, updated_at, deleted_at"

// ProfileRepository implements [models.Repository] for [models.Profile] persistence.
//
// Reads are pull based. Callers that want to react to changes can [ProfileRepository.Subscribe].
type ProfileRepository struct {
	db *sql.DB

	mu      sync.RWMutex
	subs    map[int]chan models.ProfileEvent
	nextSub int
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db, subs: make(map[int]chan models.ProfileEvent)}
}

// Create inserts a new profile with generated ID and sequence. Keywords are normalized before writing.
func (r *ProfileRepository) Create(profile *models.Profile) error {
	profile.SetKeywords(filters.NormalizeKeywords(profile.Keywords()))

	sequence, err := NextSequence(r.db, "profiles")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	profile.SetID(shared.GenerateID())
	profile.SetSequence(sequence)

	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	keywords, err := json.Marshal(profile.Keywords())
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	query := `
		INSERT INTO profiles (id, sequence, name, keywords, color, icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		profile.ID(),
		sequence,
		profile.Name(),
		string(keywords),
		profile.Color(),
		profile.Icon(),
		profile.CreatedAt(),
		profile.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	r.publish(models.ProfileCreated, profile)
	return nil
}

// Get retrieves a profile by ID, excluding soft-deleted profiles
func (r *ProfileRepository) Get(id string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = ? AND deleted_at IS NULL"

	profile, err := scanProfile(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return profile, nil
}

// Update modifies an existing profile's name, keywords, color and icon.
func (r *ProfileRepository) Update(profile *models.Profile) error {
	profile.SetKeywords(filters.NormalizeKeywords(profile.Keywords()))

	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	keywords, err := json.Marshal(profile.Keywords())
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE profiles
		SET name = ?, keywords = ?, color = ?, icon = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, profile.Name(), string(keywords), profile.Color(), profile.Icon(), now, profile.ID())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if err := expectAffected(result, shared.ErrProfileNotFound, profile.ID()); err != nil {
		return err
	}

	profile.SetUpdatedAt(now)
	r.publish(models.ProfileUpdated, profile)
	return nil
}

// Delete soft-deletes a profile by ID
func (r *ProfileRepository) Delete(id string) error {
	profile, err := r.Get(id)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `
		UPDATE profiles
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if err := expectAffected(result, shared.ErrProfileNotFound, id); err != nil {
		return err
	}

	profile.SetDeletedAt(&now)
	r.publish(models.ProfileDeleted, profile)
	return nil
}

// List retrieves all profiles matching the given criteria in creation order, excluding soft-deleted profiles.
//
// Supported criteria: "name" (exact match).
func (r *ProfileRepository) List(criteria map[string]any) ([]*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE deleted_at IS NULL"
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*models.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return profiles, nil
}

// FindByName returns the first profile named name.
func (r *ProfileRepository) FindByName(name string) (*models.Profile, error) {
	profiles, err := r.List(map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, name)
	}
	return profiles[0], nil
}

// Subscribe returns a channel receiving an event after every successful write, and a cancel func that closes it.
//
// Events are dropped for a subscriber whose buffer is full; writers never block.
func (r *ProfileRepository) Subscribe(buffer int) (<-chan models.ProfileEvent, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan models.ProfileEvent, buffer)

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (r *ProfileRepository) publish(kind models.EventKind, profile *models.Profile) {
	snapshot := *profile
	event := models.ProfileEvent{Kind: kind, Profile: &snapshot}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// rowScanner is satisfied by [*sql.Row] and [*sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		id        string
		sequence  int
		name      string
		keywords  string
		color     string
		icon      string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &name, &keywords, &color, &icon, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	var kw []string
	if err := json.Unmarshal([]byte(keywords), &kw); err != nil {
		return nil, fmt.Errorf("failed to decode keywords for profile %s: %w", id, err)
	}

	profile := models.NewProfile(name, kw, color)
	profile.SetID(id)
	profile.SetSequence(sequence)
	profile.SetIcon(icon)
	profile.SetCreatedAt(createdAt)
	profile.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		profile.SetDeletedAt(&deletedAt.Time)
	}
	return profile, nil
}
