package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
)

// UIStateRepository stores one [models.UIState] per user.
type UIStateRepository struct {
	db *sql.DB
}

// NewUIStateRepository creates a new [UIStateRepository] with the given database connection
func NewUIStateRepository(db *sql.DB) *UIStateRepository {
	return &UIStateRepository{db: db}
}

// Get returns the saved state for userID, or [models.DefaultUIState] when nothing has been saved.
func (r *UIStateRepository) Get(userID string) (*models.UIState, error) {
	query := `
		SELECT user_id, selected_profile_id, selected_playlist_id, current_view, updated_at
		FROM ui_state
		WHERE user_id = ?
	`

	var (
		state models.UIState
		view  string
	)
	err := r.db.QueryRow(query, userID).Scan(&state.UserID, &state.SelectedProfileID, &state.SelectedPlaylistID, &view, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultUIState(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ui state: %w", err)
	}

	state.CurrentView = models.View(view)
	return &state, nil
}

// Put saves state, replacing any previous state for the same user.
func (r *UIStateRepository) Put(state *models.UIState) error {
	if state.UserID == "" {
		return fmt.Errorf("ui state user id is required")
	}
	if state.CurrentView == "" {
		state.CurrentView = models.ViewHome
	}

	state.UpdatedAt = time.Now()
	query := `
		INSERT INTO ui_state (user_id, selected_profile_id, selected_playlist_id, current_view, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			selected_profile_id = excluded.selected_profile_id,
			selected_playlist_id = excluded.selected_playlist_id,
			current_view = excluded.current_view,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, state.UserID, state.SelectedProfileID, state.SelectedPlaylistID, string(state.CurrentView), state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save ui state: %w", err)
	}
	return nil
}
