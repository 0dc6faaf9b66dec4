package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"changekit/internal/database"
)

// PreferenceRepository stores per-visitor display preferences
type PreferenceRepository struct {
	db *database.DB
}

func NewPreferenceRepository(db *database.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the visitor's saved theme name, or "" when none is saved
func (r *PreferenceRepository) Get(ctx context.Context, visitor string) (string, error) {
	var theme string
	query := `SELECT theme FROM preferences WHERE visitor_id = ?`
	err := r.db.QueryRowContext(ctx, query, visitor).Scan(&theme)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	return theme, nil
}

// Set saves the visitor's theme name
func (r *PreferenceRepository) Set(ctx context.Context, visitor, theme string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertPreferenceQuery(), visitor, theme); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}
