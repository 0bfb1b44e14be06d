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
	"github.com/stampwise/stampwise-engine/pkg/rules"
	"github.com/stampwise/stampwise-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// RuleCatalogResponse for GET /rules
type RuleCatalogResponse struct {
	Rules []rules.RuleInfo `json:"rules"`
	Total int              `json:"total"`
}

// EvaluateRuleRequest for POST /rules/{rid}/evaluate. Year arrives as a
// number or a string depending on the client; dates in either format.
type EvaluateRuleRequest struct {
	CountryCode string          `json:"country_code"`
	Year        json.RawMessage `json:"year,omitempty"`
	AsOf        json.RawMessage `json:"as_of,omitempty"`
	TieCount    json.RawMessage `json:"tie_count,omitempty"`
}

// SimulateRequest for POST /scenarios/simulate
type SimulateRequest struct {
	Changes     []models.ScenarioChange `json:"changes"`
	RuleIDs     []string                `json:"rule_ids"`
	CountryCode string                  `json:"country_code"`
	Year        json.RawMessage         `json:"year,omitempty"`
	AsOf        json.RawMessage         `json:"as_of,omitempty"`
	TieCount    json.RawMessage         `json:"tie_count,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ComplianceHandler handles presence, rule evaluation and scenario requests.
type ComplianceHandler struct {
	complianceService services.ComplianceService
	logger            *zap.Logger
}

// NewComplianceHandler creates a new compliance handler.
func NewComplianceHandler(complianceService services.ComplianceService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		logger:            logger,
	}
}

// RegisterRoutes registers the compliance handler's routes on the given mux.
func (h *ComplianceHandler) RegisterRoutes(mux *http.ServeMux, userMiddleware UserMiddleware) {
	base := "/api/users/{uid}"

	mux.HandleFunc("GET "+base+"/presence", userMiddleware(h.Presence))
	mux.HandleFunc("GET "+base+"/rules", userMiddleware(h.Catalog))
	mux.HandleFunc("POST "+base+"/rules/{rid}/evaluate", userMiddleware(h.Evaluate))
	mux.HandleFunc("POST "+base+"/scenarios/simulate", userMiddleware(h.Simulate))
}

// Presence handles GET /api/users/{uid}/presence
// Query parameters: country (required), from, to (required, YYYY-MM-DD),
// as_of (optional, defaults to today).
func (h *ComplianceHandler) Presence(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	country := q.Get("country")
	if country == "" {
		h.writeError(w, http.StatusBadRequest, "missing_country", "country query parameter is required")
		return
	}

	from, ok := parseDateParam(q.Get("from"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_from", "from must be a YYYY-MM-DD date")
		return
	}
	to, ok := parseDateParam(q.Get("to"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_to", "to must be a YYYY-MM-DD date")
		return
	}

	asOf := time.Now().UTC()
	if raw := q.Get("as_of"); raw != "" {
		asOf, ok = parseDateParam(raw)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "invalid_as_of", "as_of must be a YYYY-MM-DD date")
			return
		}
	}

	summary, err := h.complianceService.ComputePresence(r.Context(), userID, country, from, to, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRange) {
			h.writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
			return
		}
		h.logger.Error("Failed to compute presence",
			zap.String("user_id", userID.String()),
			zap.String("country", country),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "presence_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Catalog handles GET /api/users/{uid}/rules
func (h *ComplianceHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	if _, ok := ParseUserID(w, r, h.logger); !ok {
		return
	}

	catalog, err := h.complianceService.RuleCatalog()
	if err != nil {
		h.logger.Error("Failed to load rule catalog", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "rule_catalog_failed", err.Error())
		return
	}

	response := RuleCatalogResponse{Rules: catalog, Total: len(catalog)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Evaluate handles POST /api/users/{uid}/rules/{rid}/evaluate
func (h *ComplianceHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	ruleID := r.PathValue("rid")

	var req EvaluateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.CountryCode == "" {
		h.writeError(w, http.StatusBadRequest, "missing_country", "country_code is required")
		return
	}

	verdict, err := h.complianceService.EvaluateRule(r.Context(), userID, ruleID, req.CountryCode, optionsFromRaw(req.Year, req.AsOf, req.TieCount))
	if err != nil {
		h.logger.Error("Failed to evaluate rule",
			zap.String("user_id", userID.String()),
			zap.String("rule_id", ruleID),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "evaluate_rule_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: verdict}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Simulate handles POST /api/users/{uid}/scenarios/simulate
func (h *ComplianceHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.RuleIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "missing_rules", "rule_ids is required")
		return
	}
	if req.CountryCode == "" {
		h.writeError(w, http.StatusBadRequest, "missing_country", "country_code is required")
		return
	}

	result, err := h.complianceService.Simulate(r.Context(), userID, req.Changes, req.RuleIDs, req.CountryCode, optionsFromRaw(req.Year, req.AsOf, req.TieCount))
	if err != nil {
		h.logger.Error("Failed to simulate scenario",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "simulate_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ComplianceHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// optionsFromRaw assembles rule options from loosely-typed wire fields.
// Missing fields keep their zero values; the registry applies defaults.
func optionsFromRaw(year, asOf, tieCount json.RawMessage) rules.Options {
	var opts rules.Options
	if y, ok := jsonutil.FlexibleIntValue(year); ok {
		opts.Year = y
	}
	if t, ok := jsonutil.FlexibleDateValue(asOf); ok {
		opts.AsOf = t
	}
	if n, ok := jsonutil.FlexibleIntValue(tieCount); ok {
		opts.TieCount = n
	}
	return opts
}

func parseDateParam(raw string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
