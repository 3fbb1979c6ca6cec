package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
)

// ErrChannelNotFound is returned when a channel id does not resolve to a live row.
var ErrChannelNotFound = errors.New("channel not found")

const channelColumns = "id, sequence, name, kind, url, thumbnail, featured, created_at, updated_at, deleted_at"

// ChannelRepository implements models.Repository[*models.Channel] for the saved channel catalog.
//
// Handles channel CRUD operations with soft delete support and name search.
type ChannelRepository struct {
	db *sql.DB
}

// NewChannelRepository creates a new ChannelRepository with the given database connection
func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create inserts a new channel into the database with generated ID and sequence
func (r *ChannelRepository) Create(channel *models.Channel) error {
	sequence, err := NextSequence(r.db, "channels")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	channel.SetID(shared.GenerateID())
	channel.SetSequence(sequence)

	if err := channel.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO channels (id, sequence, name, kind, url, thumbnail, featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		channel.ID(),
		sequence,
		channel.Name(),
		string(channel.Kind()),
		channel.URL(),
		channel.Thumbnail(),
		channel.Featured(),
		channel.CreatedAt(),
		channel.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}

	return nil
}

// Get retrieves a channel by ID, excluding soft-deleted channels
func (r *ChannelRepository) Get(id string) (*models.Channel, error) {
	query := "SELECT " + channelColumns + " FROM channels WHERE id = ? AND deleted_at IS NULL"

	channel, err := scanChannel(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel: %w", err)
	}
	return channel, nil
}

// Update modifies an existing channel in the database
func (r *ChannelRepository) Update(channel *models.Channel) error {
	if err := channel.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	query := `
		UPDATE channels
		SET name = ?, url = ?, thumbnail = ?, featured = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		channel.Name(),
		channel.URL(),
		channel.Thumbnail(),
		channel.Featured(),
		now,
		channel.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}

	if err := expectAffected(result, ErrChannelNotFound, channel.ID()); err != nil {
		return err
	}

	channel.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a channel by ID
func (r *ChannelRepository) Delete(id string) error {
	query := `
		UPDATE channels
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	return expectAffected(result, ErrChannelNotFound, id)
}

// List retrieves all channels matching the given criteria ordered by name, excluding soft-deleted channels.
//
// Supported criteria: "kind" (spotify or youtube), "featured" (bool).
func (r *ChannelRepository) List(criteria map[string]any) ([]*models.Channel, error) {
	query := "SELECT " + channelColumns + " FROM channels WHERE deleted_at IS NULL"
	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	if featured, ok := criteria["featured"].(bool); ok {
		query += " AND featured = ?"
		args = append(args, featured)
	}

	query += " ORDER BY name COLLATE NOCASE ASC, sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	channels := []*models.Channel{}
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return channels, nil
}

// Search returns channels whose name contains term, case-insensitively. A blank term returns nothing.
func (r *ChannelRepository) Search(term string) ([]*models.Channel, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []*models.Channel{}, nil
	}

	all, err := r.List(nil)
	if err != nil {
		return nil, err
	}

	matches := []*models.Channel{}
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name()), term) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func scanChannel(row rowScanner) (*models.Channel, error) {
	var (
		id        string
		sequence  int
		name      string
		kind      string
		url       string
		thumbnail string
		featured  bool
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &name, &kind, &url, &thumbnail, &featured, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	channel := models.NewChannel(name, models.ChannelKind(kind), url)
	channel.SetID(id)
	channel.SetSequence(sequence)
	channel.SetThumbnail(thumbnail)
	channel.SetFeatured(featured)
	channel.SetCreatedAt(createdAt)
	channel.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		channel.SetDeletedAt(&deletedAt.Time)
	}

	return channel, nil
}
