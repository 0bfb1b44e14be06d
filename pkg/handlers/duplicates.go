package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/database"
	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/services"
	"github.com/stampwise/stampwise-engine/pkg/services/workqueue"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// DuplicateGroupListResponse for GET /duplicates
type DuplicateGroupListResponse struct {
	Groups []*models.DuplicateGroup `json:"groups"`
	Total  int                      `json:"total"`
}

// ScanRequest for POST /duplicates/scan. Async scans run on the background
// queue; the response then carries the task ID instead of groups.
type ScanRequest struct {
	Threshold float64 `json:"threshold,omitempty"`
	Async     bool    `json:"async,omitempty"`
}

// ScanResponse for POST /duplicates/scan
type ScanResponse struct {
	Groups []*models.DuplicateGroup `json:"groups,omitempty"`
	TaskID string                   `json:"task_id,omitempty"`
}

// ResolveGroupRequest for POST /duplicates/{gid}/resolve
type ResolveGroupRequest struct {
	Action string `json:"action"`
}

// ============================================================================
// Handler
// ============================================================================

// DuplicateHandler handles duplicate detection HTTP requests.
type DuplicateHandler struct {
	duplicateService services.DuplicateService
	queue            *workqueue.Queue
	scopes           *database.UserScopeProvider
	logger           *zap.Logger
}

// NewDuplicateHandler creates a new duplicate handler.
func NewDuplicateHandler(duplicateService services.DuplicateService, queue *workqueue.Queue, scopes *database.UserScopeProvider, logger *zap.Logger) *DuplicateHandler {
	return &DuplicateHandler{
		duplicateService: duplicateService,
		queue:            queue,
		scopes:           scopes,
		logger:           logger,
	}
}

// RegisterRoutes registers the duplicate handler's routes on the given mux.
func (h *DuplicateHandler) RegisterRoutes(mux *http.ServeMux, userMiddleware UserMiddleware) {
	base := "/api/users/{uid}/duplicates"

	mux.HandleFunc("GET "+base, userMiddleware(h.List))
	mux.HandleFunc("POST "+base+"/scan", userMiddleware(h.Scan))
	mux.HandleFunc("GET "+base+"/{gid}", userMiddleware(h.Get))
	mux.HandleFunc("POST "+base+"/{gid}/resolve", userMiddleware(h.Resolve))
}

// List handles GET /api/users/{uid}/duplicates
func (h *DuplicateHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	groups, err := h.duplicateService.ListGroups(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list duplicate groups",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_groups_failed", err.Error())
		return
	}

	response := DuplicateGroupListResponse{Groups: groups, Total: len(groups)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Scan handles POST /api/users/{uid}/duplicates/scan
func (h *DuplicateHandler) Scan(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req ScanRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
	}

	if req.Async {
		task := services.NewDuplicateScanTask(h.duplicateService, h.scopes, userID, req.Threshold, h.logger)
		h.queue.Enqueue(task)

		if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Data: ScanResponse{TaskID: task.ID()}}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	groups, err := h.duplicateService.Scan(r.Context(), userID, req.Threshold)
	if err != nil {
		h.logger.Error("Failed to scan for duplicates",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "scan_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ScanResponse{Groups: groups}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{uid}/duplicates/{gid}
func (h *DuplicateHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	groupID, ok := ParseGroupID(w, r, h.logger)
	if !ok {
		return
	}

	group, err := h.duplicateService.GetGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "group_not_found", "Duplicate group not found")
			return
		}
		h.logger.Error("Failed to get duplicate group",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "get_group_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: group}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Resolve handles POST /api/users/{uid}/duplicates/{gid}/resolve
func (h *DuplicateHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	_, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	groupID, ok := ParseGroupID(w, r, h.logger)
	if !ok {
		return
	}

	var req ResolveGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	group, err := h.duplicateService.Resolve(r.Context(), groupID, models.ResolutionAction(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "group_not_found", "Duplicate group not found")
		case errors.Is(err, apperrors.ErrGroupResolved):
			h.writeError(w, http.StatusConflict, "group_already_resolved", "Duplicate group is already resolved")
		default:
			h.logger.Error("Failed to resolve duplicate group",
				zap.String("group_id", groupID.String()),
				zap.String("action", req.Action),
				zap.Error(err))
			h.writeError(w, http.StatusBadRequest, "resolve_failed", err.Error())
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: group}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DuplicateHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
