// Package services wires the pure engines (presence, rules, scenario,
// dedupe, insights) to persistence. Services own all I/O; the engines stay
// side-effect free.
package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/repositories"
)

// countryCodePattern accepts ISO-style alpha-2/alpha-3 codes. The sentinel
// UNKNOWN is also allowed; it flows through storage but never into presence
// arithmetic.
var countryCodePattern = regexp.MustCompile(`^[A-Z]{2,3}$`)

// TravelEntryService provides validated CRUD over travel entries.
type TravelEntryService interface {
	// CreateEntry validates and persists a new entry. Status defaults to
	// pending when unset.
	CreateEntry(ctx context.Context, entry *models.TravelEntry) error

	// UpdateEntry validates and persists changes to an existing entry.
	UpdateEntry(ctx context.Context, entry *models.TravelEntry) error

	// GetEntry returns a single entry by ID.
	GetEntry(ctx context.Context, entryID uuid.UUID) (*models.TravelEntry, error)

	// ListEntries returns all entries for a user ordered by entry date.
	ListEntries(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error)

	// SetStatus moves an entry through its review lifecycle.
	SetStatus(ctx context.Context, entryID uuid.UUID, status models.EntryStatus) error

	// DeleteEntry removes an entry permanently.
	DeleteEntry(ctx context.Context, entryID uuid.UUID) error
}

type travelEntryService struct {
	repo   repositories.TravelEntryRepository
	logger *zap.Logger
}

// NewTravelEntryService creates a new TravelEntryService.
func NewTravelEntryService(repo repositories.TravelEntryRepository, logger *zap.Logger) TravelEntryService {
	return &travelEntryService{
		repo:   repo,
		logger: logger.Named("travel_entry_service"),
	}
}

var _ TravelEntryService = (*travelEntryService)(nil)

func (s *travelEntryService) CreateEntry(ctx context.Context, entry *models.TravelEntry) error {
	if entry.Status == "" {
		entry.Status = models.EntryPending
	}
	if entry.SourceType == "" {
		entry.SourceType = models.SourceManual
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create travel entry: %w", err)
	}

	s.logger.Info("travel entry created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("country", entry.CountryCode))
	return nil
}

func (s *travelEntryService) UpdateEntry(ctx context.Context, entry *models.TravelEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return err
	}

	s.logger.Info("travel entry updated", zap.String("entry_id", entry.ID.String()))
	return nil
}

func (s *travelEntryService) GetEntry(ctx context.Context, entryID uuid.UUID) (*models.TravelEntry, error) {
	return s.repo.GetByID(ctx, entryID)
}

func (s *travelEntryService) ListEntries(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *travelEntryService) SetStatus(ctx context.Context, entryID uuid.UUID, status models.EntryStatus) error {
	switch status {
	case models.EntryPending, models.EntryConfirmed, models.EntryDisputed, models.EntryIgnored:
	default:
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidEntry, status)
	}
	return s.repo.UpdateStatus(ctx, entryID, status)
}

func (s *travelEntryService) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	return s.repo.Delete(ctx, entryID)
}

// validateEntry enforces the invariants storage relies on.
func validateEntry(entry *models.TravelEntry) error {
	if entry.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing user ID", apperrors.ErrInvalidEntry)
	}
	if entry.CountryCode != models.CountryUnknown && !countryCodePattern.MatchString(entry.CountryCode) {
		return fmt.Errorf("%w: bad country code %q", apperrors.ErrInvalidEntry, entry.CountryCode)
	}
	if entry.EntryDate.IsZero() {
		return fmt.Errorf("%w: missing entry date", apperrors.ErrInvalidEntry)
	}
	if entry.ExitDate != nil && entry.ExitDate.Before(entry.EntryDate) {
		return fmt.Errorf("%w: exit date before entry date", apperrors.ErrInvalidEntry)
	}
	if entry.ConfidenceScore < 0 || entry.ConfidenceScore > 1 {
		return fmt.Errorf("%w: confidence score out of range", apperrors.ErrInvalidEntry)
	}
	return nil
}
