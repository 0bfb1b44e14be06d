// Package repositories provides PostgreSQL data access. Every operation runs
// on the user-scoped connection placed in the context by the database
// middleware, so RLS policies see app.current_user_id.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/database"
	"github.com/stampwise/stampwise-engine/pkg/models"
)

// TravelEntryRepository provides data access for travel entries.
type TravelEntryRepository interface {
	Create(ctx context.Context, entry *models.TravelEntry) error
	GetByID(ctx context.Context, entryID uuid.UUID) (*models.TravelEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error)
	Update(ctx context.Context, entry *models.TravelEntry) error
	UpdateStatus(ctx context.Context, entryID uuid.UUID, status models.EntryStatus) error
	Delete(ctx context.Context, entryID uuid.UUID) error
}

type travelEntryRepository struct{}

// NewTravelEntryRepository creates a new TravelEntryRepository.
func NewTravelEntryRepository() TravelEntryRepository {
	return &travelEntryRepository{}
}

var _ TravelEntryRepository = (*travelEntryRepository)(nil)

func (r *travelEntryRepository) Create(ctx context.Context, entry *models.TravelEntry) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO travel_entries (
			user_id, country_code, entry_date, exit_date, source_type,
			source_id, confidence_score, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		entry.UserID,
		entry.CountryCode,
		entry.EntryDate,
		entry.ExitDate,
		entry.SourceType,
		entry.SourceID,
		entry.ConfidenceScore,
		entry.Status,
		now,
		now,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create travel entry: %w", err)
	}

	return nil
}

func (r *travelEntryRepository) GetByID(ctx context.Context, entryID uuid.UUID) (*models.TravelEntry, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT id, user_id, country_code, entry_date, exit_date, source_type,
		       source_id, confidence_score, status, created_at, updated_at
		FROM travel_entries
		WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, entryID)
	entry, err := scanTravelEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return entry, nil
}

func (r *travelEntryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT id, user_id, country_code, entry_date, exit_date, source_type,
		       source_id, confidence_score, status, created_at, updated_at
		FROM travel_entries
		WHERE user_id = $1
		ORDER BY entry_date, created_at, id`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query travel entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.TravelEntry
	for rows.Next() {
		entry, err := scanTravelEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating travel entries: %w", err)
	}

	return entries, nil
}

func (r *travelEntryRepository) Update(ctx context.Context, entry *models.TravelEntry) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	query := `
		UPDATE travel_entries
		SET country_code = $2, entry_date = $3, exit_date = $4,
		    confidence_score = $5, status = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		entry.ID,
		entry.CountryCode,
		entry.EntryDate,
		entry.ExitDate,
		entry.ConfidenceScore,
		entry.Status,
	).Scan(&entry.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update travel entry: %w", err)
	}

	return nil
}

func (r *travelEntryRepository) UpdateStatus(ctx context.Context, entryID uuid.UUID, status models.EntryStatus) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	query := `
		UPDATE travel_entries
		SET status = $2, updated_at = now()
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, entryID, status)
	if err != nil {
		return fmt.Errorf("failed to update travel entry status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *travelEntryRepository) Delete(ctx context.Context, entryID uuid.UUID) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	query := `DELETE FROM travel_entries WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete travel entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanTravelEntry(row pgx.Row) (*models.TravelEntry, error) {
	var e models.TravelEntry

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.CountryCode,
		&e.EntryDate,
		&e.ExitDate,
		&e.SourceType,
		&e.SourceID,
		&e.ConfidenceScore,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan travel entry: %w", err)
	}

	return &e, nil
}
