package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/presence"
	"github.com/stampwise/stampwise-engine/pkg/repositories"
	"github.com/stampwise/stampwise-engine/pkg/rules"
	"github.com/stampwise/stampwise-engine/pkg/scenario"
)

// ComplianceService runs the presence calculator, the rule registry, and the
// scenario simulator against a user's stored travel history. Entries the user
// has marked ignored are excluded before any engine sees them.
type ComplianceService interface {
	// ComputePresence returns the presence summary for one country over an
	// inclusive date range.
	ComputePresence(ctx context.Context, userID uuid.UUID, country string, rangeStart, rangeEnd, asOf time.Time) (*models.PresenceSummary, error)

	// EvaluateRule runs a single rule against the user's travel history.
	EvaluateRule(ctx context.Context, userID uuid.UUID, ruleID, country string, opts rules.Options) (*models.RuleVerdict, error)

	// Simulate applies hypothetical changes to the user's travel history and
	// reports before/after verdicts for the requested rules. Stored entries
	// are never modified.
	Simulate(ctx context.Context, userID uuid.UUID, changes []models.ScenarioChange, ruleIDs []string, country string, opts rules.Options) (*models.ScenarioResult, error)

	// RuleCatalog lists the built-in rules with their metadata.
	RuleCatalog() ([]rules.RuleInfo, error)
}

type complianceService struct {
	entryRepo repositories.TravelEntryRepository
	registry  *rules.Registry
	logger    *zap.Logger
}

// NewComplianceService creates a new ComplianceService.
func NewComplianceService(entryRepo repositories.TravelEntryRepository, registry *rules.Registry, logger *zap.Logger) ComplianceService {
	return &complianceService{
		entryRepo: entryRepo,
		registry:  registry,
		logger:    logger.Named("compliance_service"),
	}
}

var _ ComplianceService = (*complianceService)(nil)

func (s *complianceService) ComputePresence(ctx context.Context, userID uuid.UUID, country string, rangeStart, rangeEnd, asOf time.Time) (*models.PresenceSummary, error) {
	entries, err := s.loadEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return presence.Compute(entries, country, rangeStart, rangeEnd, asOf)
}

func (s *complianceService) EvaluateRule(ctx context.Context, userID uuid.UUID, ruleID, country string, opts rules.Options) (*models.RuleVerdict, error) {
	entries, err := s.loadEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	verdict := s.registry.Evaluate(ruleID, country, entries, opts)
	s.logger.Info("rule evaluated",
		zap.String("user_id", userID.String()),
		zap.String("rule_id", ruleID),
		zap.String("status", string(verdict.Status)))
	return verdict, nil
}

func (s *complianceService) Simulate(ctx context.Context, userID uuid.UUID, changes []models.ScenarioChange, ruleIDs []string, country string, opts rules.Options) (*models.ScenarioResult, error) {
	entries, err := s.loadEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := scenario.Simulate(s.registry, entries, changes, ruleIDs, country, opts)
	s.logger.Info("scenario simulated",
		zap.String("user_id", userID.String()),
		zap.Int("changes", len(changes)),
		zap.Int("rules", len(ruleIDs)))
	return result, nil
}

func (s *complianceService) RuleCatalog() ([]rules.RuleInfo, error) {
	return rules.Catalog()
}

// loadEntries fetches the user's entries with ignored ones dropped. Ignored
// entries carry no presence weight anywhere in the engine.
func (s *complianceService) loadEntries(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error) {
	all, err := s.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load travel entries: %w", err)
	}
	entries := make([]*models.TravelEntry, 0, len(all))
	for _, e := range all {
		if e.Status == models.EntryIgnored {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
