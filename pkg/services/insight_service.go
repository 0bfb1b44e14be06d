package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/insights"
	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/presence"
	"github.com/stampwise/stampwise-engine/pkg/repositories"
)

// InsightService assembles the inputs the insight generator needs: presence
// summaries for the as-of calendar year, the user's pending duplicate groups,
// and the raw travel entries.
type InsightService interface {
	GetInsights(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.Insight, error)
}

type insightService struct {
	entryRepo repositories.TravelEntryRepository
	groupRepo repositories.DuplicateGroupRepository
	logger    *zap.Logger
}

// NewInsightService creates a new InsightService.
func NewInsightService(entryRepo repositories.TravelEntryRepository, groupRepo repositories.DuplicateGroupRepository, logger *zap.Logger) InsightService {
	return &insightService{
		entryRepo: entryRepo,
		groupRepo: groupRepo,
		logger:    logger.Named("insight_service"),
	}
}

var _ InsightService = (*insightService)(nil)

func (s *insightService) GetInsights(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.Insight, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	asOf = presence.DateOnly(asOf)

	entries, err := s.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load travel entries: %w", err)
	}

	groups, err := s.groupRepo.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load pending groups: %w", err)
	}

	summaries, err := s.yearSummaries(entries, asOf)
	if err != nil {
		return nil, err
	}

	return insights.Generate(summaries, groups, entries, asOf), nil
}

// yearSummaries computes one presence summary per country visited during the
// as-of calendar year, clipped at asOf so future days never count.
func (s *insightService) yearSummaries(entries []*models.TravelEntry, asOf time.Time) ([]*models.PresenceSummary, error) {
	yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	countries := make(map[string]bool)
	for _, e := range entries {
		if e.Status == models.EntryIgnored {
			continue
		}
		if e.CountryCode == "" || e.CountryCode == models.CountryUnknown {
			continue
		}
		countries[e.CountryCode] = true
	}

	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	active := make([]*models.TravelEntry, 0, len(entries))
	for _, e := range entries {
		if e.Status != models.EntryIgnored {
			active = append(active, e)
		}
	}

	summaries := make([]*models.PresenceSummary, 0, len(codes))
	for _, code := range codes {
		summary, err := presence.Compute(active, code, yearStart, asOf, asOf)
		if err != nil {
			return nil, fmt.Errorf("presence for %s: %w", code, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
