package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/database"
	"github.com/stampwise/stampwise-engine/pkg/services/workqueue"
)

// DuplicateScanTask runs a duplicate scan for one user in the background.
// Scans run outside any HTTP request, so the task acquires its own
// user-scoped database context before touching the repositories.
type DuplicateScanTask struct {
	workqueue.BaseTask
	service   DuplicateService
	scopes    *database.UserScopeProvider
	userID    uuid.UUID
	threshold float64
	logger    *zap.Logger
}

// NewDuplicateScanTask creates a scan task for the given user. A threshold of
// zero uses the service default.
func NewDuplicateScanTask(service DuplicateService, scopes *database.UserScopeProvider, userID uuid.UUID, threshold float64, logger *zap.Logger) *DuplicateScanTask {
	return &DuplicateScanTask{
		BaseTask:  workqueue.NewBaseTask(fmt.Sprintf("duplicate-scan-%s", userID), true),
		service:   service,
		scopes:    scopes,
		userID:    userID,
		threshold: threshold,
		logger:    logger.Named("duplicate_scan_task"),
	}
}

var _ workqueue.Task = (*DuplicateScanTask)(nil)

func (t *DuplicateScanTask) Execute(ctx context.Context, _ workqueue.TaskEnqueuer) error {
	scopedCtx, cleanup, err := t.scopes.WithUserScope(ctx, t.userID)
	if err != nil {
		// Connection acquisition fails under pool pressure; worth retrying.
		return workqueue.Transient(fmt.Errorf("acquire user scope: %w", err))
	}
	defer cleanup()

	groups, err := t.service.Scan(scopedCtx, t.userID, t.threshold)
	if err != nil {
		return workqueue.Transient(err)
	}

	t.logger.Info("background scan finished",
		zap.String("user_id", t.userID.String()),
		zap.Int("groups_created", len(groups)))
	return nil
}
