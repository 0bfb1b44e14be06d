package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/models"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockTravelEntryService implements services.TravelEntryService for handler
// tests.
type mockTravelEntryService struct {
	entries   []*models.TravelEntry
	entry     *models.TravelEntry
	createErr error
	updateErr error
	getErr    error
	listErr   error
	statusErr error
	deleteErr error

	lastStatus models.EntryStatus
}

func (m *mockTravelEntryService) CreateEntry(ctx context.Context, entry *models.TravelEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = uuid.New()
	return nil
}

func (m *mockTravelEntryService) UpdateEntry(ctx context.Context, entry *models.TravelEntry) error {
	return m.updateErr
}

func (m *mockTravelEntryService) GetEntry(ctx context.Context, entryID uuid.UUID) (*models.TravelEntry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entry, nil
}

func (m *mockTravelEntryService) ListEntries(ctx context.Context, userID uuid.UUID) ([]*models.TravelEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func (m *mockTravelEntryService) SetStatus(ctx context.Context, entryID uuid.UUID, status models.EntryStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.lastStatus = status
	return nil
}

func (m *mockTravelEntryService) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	return m.deleteErr
}

// ============================================================================
// Tests
// ============================================================================

func TestTravelEntryHandler_List(t *testing.T) {
	userID := uuid.New()
	mock := &mockTravelEntryService{
		entries: []*models.TravelEntry{
			{ID: uuid.New(), UserID: userID, CountryCode: "FR"},
			{ID: uuid.New(), UserID: userID, CountryCode: "ES"},
		},
	}
	handler := NewTravelEntryHandler(mock, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String()+"/entries", nil)
	req.SetPathValue("uid", userID.String())
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var listResponse TravelEntryListResponse
	require.NoError(t, json.Unmarshal(dataBytes, &listResponse))
	assert.Equal(t, 2, listResponse.Total)
}

func TestTravelEntryHandler_List_InvalidUserID(t *testing.T) {
	handler := NewTravelEntryHandler(&mockTravelEntryService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/users/not-a-uuid/entries", nil)
	req.SetPathValue("uid", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTravelEntryHandler_Create(t *testing.T) {
	userID := uuid.New()
	mock := &mockTravelEntryService{}
	handler := NewTravelEntryHandler(mock, zap.NewNop())

	body := `{"country_code":"FR","entry_date":"2024-03-01","exit_date":"2024-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID.String()+"/entries", bytes.NewBufferString(body))
	req.SetPathValue("uid", userID.String())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)
}

func TestTravelEntryHandler_Create_RFC3339Dates(t *testing.T) {
	userID := uuid.New()
	handler := NewTravelEntryHandler(&mockTravelEntryService{}, zap.NewNop())

	body := `{"country_code":"FR","entry_date":"2024-03-01T08:30:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID.String()+"/entries", bytes.NewBufferString(body))
	req.SetPathValue("uid", userID.String())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTravelEntryHandler_Create_BadDate(t *testing.T) {
	userID := uuid.New()
	handler := NewTravelEntryHandler(&mockTravelEntryService{}, zap.NewNop())

	body := `{"country_code":"FR","entry_date":"yesterday"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID.String()+"/entries", bytes.NewBufferString(body))
	req.SetPathValue("uid", userID.String())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTravelEntryHandler_Create_ValidationError(t *testing.T) {
	userID := uuid.New()
	mock := &mockTravelEntryService{
		createErr: fmt.Errorf("%w: exit date before entry date", apperrors.ErrInvalidEntry),
	}
	handler := NewTravelEntryHandler(mock, zap.NewNop())

	body := `{"country_code":"FR","entry_date":"2024-03-10","exit_date":"2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID.String()+"/entries", bytes.NewBufferString(body))
	req.SetPathValue("uid", userID.String())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTravelEntryHandler_Create_MalformedJSON(t *testing.T) {
	userID := uuid.New()
	handler := NewTravelEntryHandler(&mockTravelEntryService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID.String()+"/entries", bytes.NewBufferString("{not json"))
	req.SetPathValue("uid", userID.String())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTravelEntryHandler_Get_NotFound(t *testing.T) {
	userID := uuid.New()
	mock := &mockTravelEntryService{getErr: apperrors.ErrNotFound}
	handler := NewTravelEntryHandler(mock, zap.NewNop())

	entryID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String()+"/entries/"+entryID.String(), nil)
	req.SetPathValue("uid", userID.String())
	req.SetPathValue("eid", entryID.String())
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTravelEntryHandler_SetStatus(t *testing.T) {
	userID := uuid.New()
	mock := &mockTravelEntryService{
		entry: &models.TravelEntry{ID: uuid.New(), EntryDate: time.Now()},
	}
	handler := NewTravelEntryHandler(mock, zap.NewNop())

	entryID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/users/"+userID.String()+"/entries/"+entryID.String()+"/status", bytes.NewBufferString(`{"status":"ignored"}`))
	req.SetPathValue("uid", userID.String())
	req.SetPathValue("eid", entryID.String())
	rec := httptest.NewRecorder()

	handler.SetStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EntryIgnored, mock.lastStatus)
}
