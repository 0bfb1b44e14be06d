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

// EvidenceRecordRepository provides data access for evidence records.
type EvidenceRecordRepository interface {
	Create(ctx context.Context, record *models.EvidenceRecord) error
	GetByID(ctx context.Context, recordID uuid.UUID) (*models.EvidenceRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error)
	// ListActiveByUser returns only records eligible for duplicate detection.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error)
	UpdateStatus(ctx context.Context, recordID uuid.UUID, status models.RecordStatus) error
}

type evidenceRecordRepository struct{}

// NewEvidenceRecordRepository creates a new EvidenceRecordRepository.
func NewEvidenceRecordRepository() EvidenceRecordRepository {
	return &evidenceRecordRepository{}
}

var _ EvidenceRecordRepository = (*evidenceRecordRepository)(nil)

func (r *evidenceRecordRepository) Create(ctx context.Context, record *models.EvidenceRecord) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO evidence_records (
			user_id, kind, extracted_text, document_number, full_name,
			birth_date, nationality, content_hash, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		record.UserID,
		record.Kind,
		record.ExtractedText,
		record.DocumentNumber,
		record.FullName,
		record.BirthDate,
		record.Nationality,
		record.ContentHash,
		record.Status,
		now,
		now,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evidence record: %w", err)
	}

	return nil
}

func (r *evidenceRecordRepository) GetByID(ctx context.Context, recordID uuid.UUID) (*models.EvidenceRecord, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT id, user_id, kind, extracted_text, document_number, full_name,
		       birth_date, nationality, content_hash, status, created_at, updated_at
		FROM evidence_records
		WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, recordID)
	record, err := scanEvidenceRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *evidenceRecordRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error) {
	return r.listByUser(ctx, userID, false)
}

func (r *evidenceRecordRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error) {
	return r.listByUser(ctx, userID, true)
}

func (r *evidenceRecordRepository) listByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*models.EvidenceRecord, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT id, user_id, kind, extracted_text, document_number, full_name,
		       birth_date, nationality, content_hash, status, created_at, updated_at
		FROM evidence_records
		WHERE user_id = $1`
	if activeOnly {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at, id`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence records: %w", err)
	}
	defer rows.Close()

	var records []*models.EvidenceRecord
	for rows.Next() {
		record, err := scanEvidenceRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evidence records: %w", err)
	}

	return records, nil
}

func (r *evidenceRecordRepository) UpdateStatus(ctx context.Context, recordID uuid.UUID, status models.RecordStatus) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	query := `
		UPDATE evidence_records
		SET status = $2, updated_at = now()
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, recordID, status)
	if err != nil {
		return fmt.Errorf("failed to update evidence record status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanEvidenceRecord(row pgx.Row) (*models.EvidenceRecord, error) {
	var rec models.EvidenceRecord

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Kind,
		&rec.ExtractedText,
		&rec.DocumentNumber,
		&rec.FullName,
		&rec.BirthDate,
		&rec.Nationality,
		&rec.ContentHash,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan evidence record: %w", err)
	}

	return &rec, nil
}
