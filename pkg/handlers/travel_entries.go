package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/jsonutil"
	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// TravelEntryListResponse for GET /entries
type TravelEntryListResponse struct {
	Entries []*models.TravelEntry `json:"entries"`
	Total   int                   `json:"total"`
}

// TravelEntryRequest for POST /entries and PUT /entries/{eid}. Dates accept
// both plain dates and RFC 3339 timestamps; web clients disagree.
type TravelEntryRequest struct {
	CountryCode     string          `json:"country_code"`
	EntryDate       json.RawMessage `json:"entry_date"`
	ExitDate        json.RawMessage `json:"exit_date,omitempty"`
	SourceType      string          `json:"source_type,omitempty"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty"`
	Status          string          `json:"status,omitempty"`
}

// SetEntryStatusRequest for PUT /entries/{eid}/status
type SetEntryStatusRequest struct {
	Status string `json:"status"`
}

// ============================================================================
// Handler
// ============================================================================

// TravelEntryHandler handles travel entry HTTP requests.
type TravelEntryHandler struct {
	entryService services.TravelEntryService
	logger       *zap.Logger
}

// NewTravelEntryHandler creates a new travel entry handler.
func NewTravelEntryHandler(entryService services.TravelEntryService, logger *zap.Logger) *TravelEntryHandler {
	return &TravelEntryHandler{
		entryService: entryService,
		logger:       logger,
	}
}

// RegisterRoutes registers the travel entry handler's routes on the given mux.
func (h *TravelEntryHandler) RegisterRoutes(mux *http.ServeMux, userMiddleware UserMiddleware) {
	base := "/api/users/{uid}/entries"

	mux.HandleFunc("GET "+base, userMiddleware(h.List))
	mux.HandleFunc("POST "+base, userMiddleware(h.Create))
	mux.HandleFunc("GET "+base+"/{eid}", userMiddleware(h.Get))
	mux.HandleFunc("PUT "+base+"/{eid}", userMiddleware(h.Update))
	mux.HandleFunc("PUT "+base+"/{eid}/status", userMiddleware(h.SetStatus))
	mux.HandleFunc("DELETE "+base+"/{eid}", userMiddleware(h.Delete))
}

// List handles GET /api/users/{uid}/entries
func (h *TravelEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	entries, err := h.entryService.ListEntries(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list travel entries",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_entries_failed", err.Error())
		return
	}

	response := TravelEntryListResponse{Entries: entries, Total: len(entries)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/users/{uid}/entries
func (h *TravelEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req TravelEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	entry, ok := h.entryFromRequest(w, &req)
	if !ok {
		return
	}
	entry.UserID = userID

	if err := h.entryService.CreateEntry(r.Context(), entry); err != nil {
		if errors.Is(err, apperrors.ErrInvalidEntry) {
			h.writeError(w, http.StatusBadRequest, "invalid_entry", err.Error())
			return
		}
		h.logger.Error("Failed to create travel entry",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "create_entry_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{uid}/entries/{eid}
func (h *TravelEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.entryService.GetEntry(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "entry_not_found", "Travel entry not found")
			return
		}
		h.logger.Error("Failed to get travel entry",
			zap.String("entry_id", entryID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "get_entry_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/users/{uid}/entries/{eid}
func (h *TravelEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	var req TravelEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	existing, err := h.entryService.GetEntry(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "entry_not_found", "Travel entry not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "get_entry_failed", err.Error())
		return
	}

	entry, ok := h.entryFromRequest(w, &req)
	if !ok {
		return
	}
	entry.ID = entryID
	entry.UserID = userID
	entry.SourceID = existing.SourceID
	entry.CreatedAt = existing.CreatedAt
	if entry.SourceType == "" {
		entry.SourceType = existing.SourceType
	}
	if entry.Status == "" {
		entry.Status = existing.Status
	}

	if err := h.entryService.UpdateEntry(r.Context(), entry); err != nil {
		if errors.Is(err, apperrors.ErrInvalidEntry) {
			h.writeError(w, http.StatusBadRequest, "invalid_entry", err.Error())
			return
		}
		h.logger.Error("Failed to update travel entry",
			zap.String("entry_id", entryID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "update_entry_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SetStatus handles PUT /api/users/{uid}/entries/{eid}/status
func (h *TravelEntryHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	_, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	var req SetEntryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.entryService.SetStatus(r.Context(), entryID, models.EntryStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidEntry):
			h.writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "entry_not_found", "Travel entry not found")
		default:
			h.logger.Error("Failed to set entry status",
				zap.String("entry_id", entryID.String()),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "set_status_failed", err.Error())
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/users/{uid}/entries/{eid}
func (h *TravelEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	entryID, ok := ParseEntryID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.entryService.DeleteEntry(r.Context(), entryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "entry_not_found", "Travel entry not found")
			return
		}
		h.logger.Error("Failed to delete travel entry",
			zap.String("entry_id", entryID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "delete_entry_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// entryFromRequest converts the wire form to a model, writing a 400 and
// returning false when dates are unparseable.
func (h *TravelEntryHandler) entryFromRequest(w http.ResponseWriter, req *TravelEntryRequest) (*models.TravelEntry, bool) {
	entryDate, ok := jsonutil.FlexibleDateValue(req.EntryDate)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_entry_date", "entry_date must be a date")
		return nil, false
	}

	var exitDate *time.Time
	if len(req.ExitDate) > 0 && string(req.ExitDate) != "null" {
		parsed, ok := jsonutil.FlexibleDateValue(req.ExitDate)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "invalid_exit_date", "exit_date must be a date")
			return nil, false
		}
		exitDate = &parsed
	}

	confidence := 1.0
	if req.ConfidenceScore != nil {
		confidence = *req.ConfidenceScore
	}

	return &models.TravelEntry{
		CountryCode:     req.CountryCode,
		EntryDate:       entryDate,
		ExitDate:        exitDate,
		SourceType:      models.SourceType(req.SourceType),
		ConfidenceScore: confidence,
		Status:          models.EntryStatus(req.Status),
	}, true
}

func (h *TravelEntryHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
