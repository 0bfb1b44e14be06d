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

// EvidenceListResponse for GET /evidence
type EvidenceListResponse struct {
	Records []*models.EvidenceRecord `json:"records"`
	Total   int                      `json:"total"`
}

// IngestEvidenceRequest for POST /evidence. Extraction pipelines post their
// output here; the structured fields are whatever OCR or parsing recovered.
type IngestEvidenceRequest struct {
	Kind           string          `json:"kind"`
	ExtractedText  string          `json:"extracted_text"`
	DocumentNumber *string         `json:"document_number,omitempty"`
	FullName       *string         `json:"full_name,omitempty"`
	BirthDate      json.RawMessage `json:"birth_date,omitempty"`
	Nationality    *string         `json:"nationality,omitempty"`
	ContentHash    *string         `json:"content_hash,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// EvidenceHandler handles evidence record HTTP requests.
type EvidenceHandler struct {
	evidenceService services.EvidenceService
	logger          *zap.Logger
}

// NewEvidenceHandler creates a new evidence handler.
func NewEvidenceHandler(evidenceService services.EvidenceService, logger *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		evidenceService: evidenceService,
		logger:          logger,
	}
}

// RegisterRoutes registers the evidence handler's routes on the given mux.
func (h *EvidenceHandler) RegisterRoutes(mux *http.ServeMux, userMiddleware UserMiddleware) {
	base := "/api/users/{uid}/evidence"

	mux.HandleFunc("GET "+base, userMiddleware(h.List))
	mux.HandleFunc("POST "+base, userMiddleware(h.Ingest))
	mux.HandleFunc("GET "+base+"/{rid}", userMiddleware(h.Get))
}

// List handles GET /api/users/{uid}/evidence
func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	records, err := h.evidenceService.ListRecords(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list evidence records",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_records_failed", err.Error())
		return
	}

	response := EvidenceListResponse{Records: records, Total: len(records)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Ingest handles POST /api/users/{uid}/evidence
func (h *EvidenceHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req IngestEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	var birthDate *time.Time
	if len(req.BirthDate) > 0 && string(req.BirthDate) != "null" {
		parsed, ok := jsonutil.FlexibleDateValue(req.BirthDate)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "invalid_birth_date", "birth_date must be a date")
			return
		}
		birthDate = &parsed
	}

	record := &models.EvidenceRecord{
		UserID:         userID,
		Kind:           models.EvidenceKind(req.Kind),
		ExtractedText:  req.ExtractedText,
		DocumentNumber: req.DocumentNumber,
		FullName:       req.FullName,
		BirthDate:      birthDate,
		Nationality:    req.Nationality,
		ContentHash:    req.ContentHash,
	}

	if err := h.evidenceService.Ingest(r.Context(), record); err != nil {
		if errors.Is(err, apperrors.ErrInvalidEntry) {
			h.writeError(w, http.StatusBadRequest, "invalid_record", err.Error())
			return
		}
		h.logger.Error("Failed to ingest evidence record",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "ingest_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{uid}/evidence/{rid}
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	recordID, ok := ParseRecordID(w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.evidenceService.GetRecord(r.Context(), recordID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "record_not_found", "Evidence record not found")
			return
		}
		h.logger.Error("Failed to get evidence record",
			zap.String("record_id", recordID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "get_record_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *EvidenceHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
