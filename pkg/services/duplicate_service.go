package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/dedupe"
	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/repositories"
)

// DuplicateService runs duplicate detection over a user's evidence records
// and applies resolution decisions.
type DuplicateService interface {
	// Scan clusters the user's active evidence records and persists each new
	// cluster as a pending duplicate group. Records already sitting in a
	// pending group are excluded from the scan so resolution decisions are
	// never raced. Returns the newly created groups.
	Scan(ctx context.Context, userID uuid.UUID, threshold float64) ([]*models.DuplicateGroup, error)

	// ListGroups returns all duplicate groups for a user, pending and
	// resolved.
	ListGroups(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error)

	// GetGroup returns a single group by ID.
	GetGroup(ctx context.Context, groupID uuid.UUID) (*models.DuplicateGroup, error)

	// Resolve applies the user's decision to a pending group. Merge, delete
	// and ignore all move the member records to the matching terminal status;
	// the primary record always stays active.
	Resolve(ctx context.Context, groupID uuid.UUID, action models.ResolutionAction) (*models.DuplicateGroup, error)
}

type duplicateService struct {
	recordRepo repositories.EvidenceRecordRepository
	groupRepo  repositories.DuplicateGroupRepository
	threshold  float64
	logger     *zap.Logger
}

// NewDuplicateService creates a new DuplicateService. The threshold is the
// default similarity cutoff used when a scan does not supply its own.
func NewDuplicateService(recordRepo repositories.EvidenceRecordRepository, groupRepo repositories.DuplicateGroupRepository, threshold float64, logger *zap.Logger) DuplicateService {
	if threshold <= 0 {
		threshold = dedupe.DefaultThreshold
	}
	return &duplicateService{
		recordRepo: recordRepo,
		groupRepo:  groupRepo,
		threshold:  threshold,
		logger:     logger.Named("duplicate_service"),
	}
}

var _ DuplicateService = (*duplicateService)(nil)

func (s *duplicateService) Scan(ctx context.Context, userID uuid.UUID, threshold float64) ([]*models.DuplicateGroup, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}

	records, err := s.recordRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load evidence records: %w", err)
	}

	pending, err := s.groupRepo.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load pending groups: %w", err)
	}

	candidates := dedupe.Detect(freeRecords(records, pending), threshold)

	groups := make([]*models.DuplicateGroup, 0, len(candidates))
	for _, c := range candidates {
		group := &models.DuplicateGroup{
			UserID:    userID,
			PrimaryID: c.PrimaryID,
			Members:   c.Members,
			Status:    models.GroupPending,
		}
		if err := s.groupRepo.Create(ctx, group); err != nil {
			return nil, fmt.Errorf("persist duplicate group: %w", err)
		}
		groups = append(groups, group)
	}

	s.logger.Info("duplicate scan complete",
		zap.String("user_id", userID.String()),
		zap.Int("records_scanned", len(records)),
		zap.Int("groups_created", len(groups)))
	return groups, nil
}

func (s *duplicateService) ListGroups(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error) {
	return s.groupRepo.ListByUser(ctx, userID)
}

func (s *duplicateService) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.DuplicateGroup, error) {
	return s.groupRepo.GetByID(ctx, groupID)
}

func (s *duplicateService) Resolve(ctx context.Context, groupID uuid.UUID, action models.ResolutionAction) (*models.DuplicateGroup, error) {
	memberStatus, err := statusForAction(action)
	if err != nil {
		return nil, err
	}

	group, err := s.groupRepo.Resolve(ctx, groupID, action)
	if err != nil {
		return nil, err
	}

	for _, m := range group.Members {
		if err := s.recordRepo.UpdateStatus(ctx, m.RecordID, memberStatus); err != nil {
			return nil, fmt.Errorf("update record %s after %s: %w", m.RecordID, action, err)
		}
	}

	s.logger.Info("duplicate group resolved",
		zap.String("group_id", groupID.String()),
		zap.String("action", string(action)),
		zap.Int("members", len(group.Members)))
	return group, nil
}

// statusForAction maps a resolution action to the terminal status the
// member records take. The primary record is untouched in every case.
func statusForAction(action models.ResolutionAction) (models.RecordStatus, error) {
	switch action {
	case models.ResolutionMerge:
		return models.RecordMerged, nil
	case models.ResolutionDelete:
		return models.RecordDeleted, nil
	case models.ResolutionIgnore:
		return models.RecordIgnored, nil
	default:
		return "", fmt.Errorf("unknown resolution action %q", action)
	}
}

// freeRecords drops records already claimed by a pending group.
func freeRecords(records []*models.EvidenceRecord, pending []*models.DuplicateGroup) []*models.EvidenceRecord {
	free := make([]*models.EvidenceRecord, 0, len(records))
	for _, r := range records {
		claimed := false
		for _, g := range pending {
			if g.ContainsRecord(r.ID) {
				claimed = true
				break
			}
		}
		if !claimed {
			free = append(free, r)
		}
	}
	return free
}
