package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/repositories"
)

// EvidenceService ingests extraction output into the evidence store.
type EvidenceService interface {
	// Ingest validates and persists a new evidence record. Status is always
	// forced to active; lifecycle transitions belong to duplicate resolution.
	Ingest(ctx context.Context, record *models.EvidenceRecord) error

	// ListRecords returns all evidence records for a user.
	ListRecords(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error)

	// GetRecord returns a single record by ID.
	GetRecord(ctx context.Context, recordID uuid.UUID) (*models.EvidenceRecord, error)
}

type evidenceService struct {
	repo   repositories.EvidenceRecordRepository
	logger *zap.Logger
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(repo repositories.EvidenceRecordRepository, logger *zap.Logger) EvidenceService {
	return &evidenceService{
		repo:   repo,
		logger: logger.Named("evidence_service"),
	}
}

var _ EvidenceService = (*evidenceService)(nil)

func (s *evidenceService) Ingest(ctx context.Context, record *models.EvidenceRecord) error {
	if record.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing user ID", apperrors.ErrInvalidEntry)
	}
	switch record.Kind {
	case models.EvidencePassportScan, models.EvidenceFlightEmail:
	default:
		return fmt.Errorf("%w: unknown evidence kind %q", apperrors.ErrInvalidEntry, record.Kind)
	}
	if strings.TrimSpace(record.ExtractedText) == "" && record.ContentHash == nil {
		return fmt.Errorf("%w: record carries no text and no content hash", apperrors.ErrInvalidEntry)
	}
	record.Status = models.RecordActive

	if err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("create evidence record: %w", err)
	}

	s.logger.Info("evidence record ingested",
		zap.String("record_id", record.ID.String()),
		zap.String("kind", string(record.Kind)))
	return nil
}

func (s *evidenceService) ListRecords(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *evidenceService) GetRecord(ctx context.Context, recordID uuid.UUID) (*models.EvidenceRecord, error) {
	return s.repo.GetByID(ctx, recordID)
}
