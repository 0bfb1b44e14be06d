package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/database"
	"github.com/stampwise/stampwise-engine/pkg/models"
)

// DuplicateGroupRepository provides data access for duplicate groups.
// Members are stored as a JSONB array alongside the group row; groups are
// write-once apart from the single pending-to-resolved transition.
type DuplicateGroupRepository interface {
	Create(ctx context.Context, group *models.DuplicateGroup) error
	GetByID(ctx context.Context, groupID uuid.UUID) (*models.DuplicateGroup, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error)
	ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error)
	// Resolve flips a pending group to resolved with the given action.
	// Returns apperrors.ErrGroupResolved if the group was already resolved.
	Resolve(ctx context.Context, groupID uuid.UUID, action models.ResolutionAction) (*models.DuplicateGroup, error)
}

type duplicateGroupRepository struct{}

// NewDuplicateGroupRepository creates a new DuplicateGroupRepository.
func NewDuplicateGroupRepository() DuplicateGroupRepository {
	return &duplicateGroupRepository{}
}

var _ DuplicateGroupRepository = (*duplicateGroupRepository)(nil)

func (r *duplicateGroupRepository) Create(ctx context.Context, group *models.DuplicateGroup) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	members, err := json.Marshal(group.Members)
	if err != nil {
		return fmt.Errorf("failed to marshal group members: %w", err)
	}

	query := `
		INSERT INTO duplicate_groups (
			user_id, primary_id, members, status, created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = scope.Conn.QueryRow(ctx, query,
		group.UserID,
		group.PrimaryID,
		members,
		group.Status,
		time.Now(),
	).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create duplicate group: %w", err)
	}

	return nil
}

func (r *duplicateGroupRepository) GetByID(ctx context.Context, groupID uuid.UUID) (*models.DuplicateGroup, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT id, user_id, primary_id, members, status,
		       resolution_action, resolved_at, created_at
		FROM duplicate_groups
		WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, groupID)
	group, err := scanDuplicateGroup(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return group, nil
}

func (r *duplicateGroupRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error) {
	return r.listByUser(ctx, userID, false)
}

func (r *duplicateGroupRepository) ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error) {
	return r.listByUser(ctx, userID, true)
}

func (r *duplicateGroupRepository) listByUser(ctx context.Context, userID uuid.UUID, pendingOnly bool) ([]*models.DuplicateGroup, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT id, user_id, primary_id, members, status,
		       resolution_action, resolved_at, created_at
		FROM duplicate_groups
		WHERE user_id = $1`
	if pendingOnly {
		query += ` AND status = 'pending'`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.DuplicateGroup
	for rows.Next() {
		group, err := scanDuplicateGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate groups: %w", err)
	}

	return groups, nil
}

func (r *duplicateGroupRepository) Resolve(ctx context.Context, groupID uuid.UUID, action models.ResolutionAction) (*models.DuplicateGroup, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		UPDATE duplicate_groups
		SET status = 'resolved', resolution_action = $2, resolved_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, primary_id, members, status,
		          resolution_action, resolved_at, created_at`

	row := scope.Conn.QueryRow(ctx, query, groupID, action)
	group, err := scanDuplicateGroup(row)
	if err == nil {
		return group, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to resolve duplicate group: %w", err)
	}

	// No pending row matched: distinguish missing from already resolved.
	existing, getErr := r.GetByID(ctx, groupID)
	if getErr != nil {
		return nil, getErr
	}
	if existing.Status == models.GroupResolved {
		return nil, apperrors.ErrGroupResolved
	}
	return nil, apperrors.ErrNotFound
}

func scanDuplicateGroup(row pgx.Row) (*models.DuplicateGroup, error) {
	var g models.DuplicateGroup
	var members []byte

	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.PrimaryID,
		&members,
		&g.Status,
		&g.ResolutionAction,
		&g.ResolvedAt,
		&g.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
	}

	if len(members) > 0 && string(members) != "null" {
		if err := json.Unmarshal(members, &g.Members); err != nil {
			return nil, fmt.Errorf("failed to unmarshal group members: %w", err)
		}
	}

	return &g, nil
}
