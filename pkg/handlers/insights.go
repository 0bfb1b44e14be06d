package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/services"
)

// InsightListResponse for GET /insights
type InsightListResponse struct {
	Insights []models.Insight `json:"insights"`
	Total    int              `json:"total"`
}

// InsightHandler handles insight HTTP requests.
type InsightHandler struct {
	insightService services.InsightService
	logger         *zap.Logger
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(insightService services.InsightService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		logger:         logger,
	}
}

// RegisterRoutes registers the insight handler's routes on the given mux.
func (h *InsightHandler) RegisterRoutes(mux *http.ServeMux, userMiddleware UserMiddleware) {
	mux.HandleFunc("GET /api/users/{uid}/insights", userMiddleware(h.List))
}

// List handles GET /api/users/{uid}/insights
// Query parameter: as_of (optional, YYYY-MM-DD, defaults to today).
func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, ok := parseDateParam(raw)
		if !ok {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_as_of", "as_of must be a YYYY-MM-DD date"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		asOf = parsed
	}

	insights, err := h.insightService.GetInsights(r.Context(), userID, asOf)
	if err != nil {
		h.logger.Error("Failed to generate insights",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "insights_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := InsightListResponse{Insights: insights, Total: len(insights)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
