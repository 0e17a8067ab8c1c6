// HTTP handlers for the distribution service.
//
// All mutating routes expect x-user-id / x-user-name headers forwarded by
// the Gateway.
//
// Routes:
//
//	GET  /vagas                             → filtered vaga listing
//	POST /vagas/{id}/priority               → compute priority score
//	GET  /vagas/{id}/recommendations        → ranked analyst recommendations
//	POST /vagas/{id}/ai-review              → send draft for AI review
//	POST /vagas/{id}/description-ready      → record AI suggestion, await approval
//	POST /vagas/{id}/approve-description    → approve / edit / reject description
//	POST /vagas/{id}/approve-priority       → approve priority, distribute
//	POST /vagas/{id}/redistribute           → reassign analyst (with reason)
//	POST /vagas/{id}/advance                → advance post-distribution stage
//	PUT  /analysts/{id}/adjustment          → save adjustment (with reason)
//	POST /analysts/{id}/adjustment/reset    → reset adjustment to defaults
//	GET  /analysts/{id}/adjustment/history  → adjustment audit trail
package distribution

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/ports"
)

// Handler adapts the Service to HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all distribution routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/vagas", h.handleVagas)
	mux.HandleFunc("/vagas/", h.handleVagaAction)
	mux.HandleFunc("/analysts/", h.handleAnalystAction)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleVagas handles GET /vagas
func (h *Handler) handleVagas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := ports.VagaFilter{
		Status:   r.URL.Query().Get("status"),
		ClientID: r.URL.Query().Get("clientId"),
	}
	if raw := r.URL.Query().Get("urgent"); raw != "" {
		urgent := raw == "true"
		filter.Urgent = &urgent
	}

	vagas, err := h.svc.ListVagas(r.Context(), filter)
	if err != nil {
		h.fail(w, "listVagas", err)
		return
	}
	jsonOK(w, vagas)
}

// handleVagaAction handles /vagas/{id}/{action}
func (h *Handler) handleVagaAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	vagaID, action := parts[1], parts[2]

	if action == "recommendations" {
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.recommendations(w, r, vagaID)
		return
	}

	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "priority":
		h.computePriority(w, r, vagaID)
	case "ai-review":
		h.requestAIReview(w, r, vagaID)
	case "description-ready":
		h.descriptionReady(w, r, vagaID)
	case "approve-description":
		h.approveDescription(w, r, vagaID)
	case "approve-priority":
		h.approvePriority(w, r, vagaID)
	case "redistribute":
		h.redistribute(w, r, vagaID)
	case "advance":
		h.advance(w, r, vagaID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// handleAnalystAction handles /analysts/{id}/adjustment[...]
func (h *Handler) handleAnalystAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[2] == "adjustment" && r.Method == http.MethodPut:
		h.saveAdjustment(w, r, parts[1])
	case len(parts) == 4 && parts[2] == "adjustment" && parts[3] == "reset" && r.Method == http.MethodPost:
		h.resetAdjustment(w, r, parts[1])
	case len(parts) == 4 && parts[2] == "adjustment" && parts[3] == "history" && r.Method == http.MethodGet:
		h.adjustmentHistory(w, r, parts[1])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) computePriority(w http.ResponseWriter, r *http.Request, vagaID string) {
	score, err := h.svc.ComputePriority(r.Context(), vagaID)
	if err != nil {
		h.fail(w, "computePriority", err)
		return
	}
	jsonOK(w, score)
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request, vagaID string) {
	ranking, err := h.svc.RecommendAnalysts(r.Context(), vagaID)
	if err != nil {
		h.fail(w, "recommendAnalysts", err)
		return
	}
	jsonOK(w, ranking)
}

func (h *Handler) requestAIReview(w http.ResponseWriter, r *http.Request, vagaID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.RequestAIReview(r.Context(), vagaID, actor); err != nil {
		h.fail(w, "requestAIReview", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) descriptionReady(w http.ResponseWriter, r *http.Request, vagaID string) {
	var body struct {
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.svc.MarkDescriptionReady(r.Context(), vagaID, body.Suggestion); err != nil {
		h.fail(w, "markDescriptionReady", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) approveDescription(w http.ResponseWriter, r *http.Request, vagaID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		Decision  string `json:"decision"`
		FinalText string `json:"finalText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Decision == "" {
		jsonError(w, "body must contain decision", http.StatusBadRequest)
		return
	}
	err := h.svc.ApproveDescription(r.Context(), vagaID, DescriptionDecision(body.Decision), body.FinalText, actor)
	if err != nil {
		h.fail(w, "approveDescription", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) approvePriority(w http.ResponseWriter, r *http.Request, vagaID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.ApprovePriority(r.Context(), vagaID, actor); err != nil {
		h.fail(w, "approvePriority", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) redistribute(w http.ResponseWriter, r *http.Request, vagaID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		NewAnalystID string `json:"newAnalystId"`
		Reason       string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewAnalystID == "" {
		jsonError(w, "body must contain newAnalystId", http.StatusBadRequest)
		return
	}
	if err := h.svc.Redistribute(r.Context(), vagaID, body.NewAnalystID, body.Reason, actor); err != nil {
		h.fail(w, "redistribute", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, vagaID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}
	if err := h.svc.AdvanceWorkflow(r.Context(), vagaID, body.NewStatus, actor); err != nil {
		h.fail(w, "advanceWorkflow", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) saveAdjustment(w http.ResponseWriter, r *http.Request, analystID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		ActiveForDistribution  *bool    `json:"activeForDistribution"`
		PriorityClass          *string  `json:"priorityClass"`
		MaxConcurrentVagas     *int     `json:"maxConcurrentVagas"`
		PerformanceMultiplier  *float64 `json:"performanceMultiplier"`
		ExperienceBonus        *int     `json:"experienceBonus"`
		StackFitOverride       *int     `json:"stackFitOverride"`
		ClearStackFitOverride  bool     `json:"clearStackFitOverride"`
		ClientFitOverride      *int     `json:"clientFitOverride"`
		ClearClientFitOverride bool     `json:"clearClientFitOverride"`
		Notes                  *string  `json:"notes"`
		Reason                 string   `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	patch := AdjustmentPatch{
		ActiveForDistribution:  body.ActiveForDistribution,
		MaxConcurrentVagas:     body.MaxConcurrentVagas,
		PerformanceMultiplier:  body.PerformanceMultiplier,
		ExperienceBonus:        body.ExperienceBonus,
		StackFitOverride:       body.StackFitOverride,
		ClearStackFitOverride:  body.ClearStackFitOverride,
		ClientFitOverride:      body.ClientFitOverride,
		ClearClientFitOverride: body.ClearClientFitOverride,
		Notes:                  body.Notes,
	}
	if body.PriorityClass != nil {
		pc := model.PriorityClass(*body.PriorityClass)
		patch.PriorityClass = &pc
	}

	if err := h.svc.SaveAdjustment(r.Context(), analystID, patch, body.Reason, actor); err != nil {
		h.fail(w, "saveAdjustment", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) resetAdjustment(w http.ResponseWriter, r *http.Request, analystID string) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResetAdjustment(r.Context(), analystID, actor); err != nil {
		h.fail(w, "resetAdjustment", err)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) adjustmentHistory(w http.ResponseWriter, r *http.Request, analystID string) {
	entries, err := h.svc.AdjustmentHistory(r.Context(), analystID)
	if err != nil {
		h.fail(w, "adjustmentHistory", err)
		return
	}
	jsonOK(w, entries)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// actorFrom extracts the acting user forwarded by the Gateway. Writes the
// error response itself when the headers are missing.
func actorFrom(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	id := r.Header.Get("x-user-id")
	if id == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return model.Actor{}, false
	}
	return model.Actor{ID: id, Name: r.Header.Get("x-user-name")}, true
}

// fail maps domain errors to HTTP status codes and logs the unexpected ones.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	var se *StateError
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		jsonError(w, "concurrent update detected — refresh and retry", http.StatusConflict)
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.As(err, &se):
		jsonError(w, se.Error(), http.StatusConflict)
	default:
		slog.Error("request failed", "op", op, "err", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
