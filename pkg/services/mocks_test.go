package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/models"
)

// ============================================================================
// Mock repositories shared across service tests
// ============================================================================

type mockEntryRepo struct {
	entries   map[uuid.UUID]*models.TravelEntry
	createErr error
	listErr   error
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[uuid.UUID]*models.TravelEntry)}
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *models.TravelEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockEntryRepo) GetByID(ctx context.Context, entryID uuid.UUID) (*models.TravelEntry, error) {
	entry, ok := m.entries[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return entry, nil
}

func (m *mockEntryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*models.TravelEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EntryDate.Before(result[j].EntryDate)
	})
	return result, nil
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *models.TravelEntry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return apperrors.ErrNotFound
	}
	entry.UpdatedAt = time.Now().UTC()
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockEntryRepo) UpdateStatus(ctx context.Context, entryID uuid.UUID, status models.EntryStatus) error {
	entry, ok := m.entries[entryID]
	if !ok {
		return apperrors.ErrNotFound
	}
	entry.Status = status
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, entryID uuid.UUID) error {
	if _, ok := m.entries[entryID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.entries, entryID)
	return nil
}

type mockRecordRepo struct {
	records   map[uuid.UUID]*models.EvidenceRecord
	createErr error
	statusErr error
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[uuid.UUID]*models.EvidenceRecord)}
}

func (m *mockRecordRepo) Create(ctx context.Context, record *models.EvidenceRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	m.records[record.ID] = record
	return nil
}

func (m *mockRecordRepo) GetByID(ctx context.Context, recordID uuid.UUID) (*models.EvidenceRecord, error) {
	record, ok := m.records[recordID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func (m *mockRecordRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error) {
	return m.list(userID, false), nil
}

func (m *mockRecordRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.EvidenceRecord, error) {
	return m.list(userID, true), nil
}

func (m *mockRecordRepo) list(userID uuid.UUID, activeOnly bool) []*models.EvidenceRecord {
	var result []*models.EvidenceRecord
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		if activeOnly && r.Status != models.RecordActive {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (m *mockRecordRepo) UpdateStatus(ctx context.Context, recordID uuid.UUID, status models.RecordStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	record, ok := m.records[recordID]
	if !ok {
		return apperrors.ErrNotFound
	}
	record.Status = status
	return nil
}

type mockGroupRepo struct {
	groups    map[uuid.UUID]*models.DuplicateGroup
	createErr error
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{groups: make(map[uuid.UUID]*models.DuplicateGroup)}
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.DuplicateGroup) error {
	if m.createErr != nil {
		return m.createErr
	}
	group.ID = uuid.New()
	group.CreatedAt = time.Now().UTC()
	m.groups[group.ID] = group
	return nil
}

func (m *mockGroupRepo) GetByID(ctx context.Context, groupID uuid.UUID) (*models.DuplicateGroup, error) {
	group, ok := m.groups[groupID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return group, nil
}

func (m *mockGroupRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error) {
	return m.list(userID, false), nil
}

func (m *mockGroupRepo) ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]*models.DuplicateGroup, error) {
	return m.list(userID, true), nil
}

func (m *mockGroupRepo) list(userID uuid.UUID, pendingOnly bool) []*models.DuplicateGroup {
	var result []*models.DuplicateGroup
	for _, g := range m.groups {
		if g.UserID != userID {
			continue
		}
		if pendingOnly && g.Status != models.GroupPending {
			continue
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (m *mockGroupRepo) Resolve(ctx context.Context, groupID uuid.UUID, action models.ResolutionAction) (*models.DuplicateGroup, error) {
	group, ok := m.groups[groupID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if group.Status == models.GroupResolved {
		return nil, apperrors.ErrGroupResolved
	}
	now := time.Now().UTC()
	group.Status = models.GroupResolved
	group.ResolutionAction = &action
	group.ResolvedAt = &now
	return group, nil
}
