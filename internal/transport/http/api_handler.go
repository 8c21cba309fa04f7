package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"sales-competency-service/internal/app"
	"sales-competency-service/internal/domain"
)

// APIHandler exposes attempts, reports and recommendations as JSON over HTTP.
type APIHandler struct {
	service *app.AssessmentService
}

func NewAPIHandler(service *app.AssessmentService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /attempts", h.submitAttempt)
	mux.HandleFunc("GET /attempts/{id}", h.getAttempt)
	mux.HandleFunc("GET /attempts/{id}/report", h.getReport)
	mux.HandleFunc("GET /recommendations", h.getRecommendations)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

type submitRequest struct {
	RespondentID string          `json:"respondentId"`
	Language     string          `json:"language"`
	Answers      []domain.Answer `json:"answers"`
}

func (h *APIHandler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	attempt, err := h.service.SubmitAnswers(r.Context(), req.RespondentID, lang, req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (h *APIHandler) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *APIHandler) getReport(w http.ResponseWriter, r *http.Request) {
	lang, err := domain.ParseLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "limit must be a non-negative integer"})
			return
		}
	}
	report, err := h.service.Report(r.Context(), r.PathValue("id"), lang, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *APIHandler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tier, err := domain.ParseTier(q.Get("tier"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	lang, err := domain.ParseLanguage(q.Get("lang"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	recs, err := h.service.Recommendations(q.Get("competency"), tier, lang)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAttemptNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAttemptExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSessionExpired):
		status = http.StatusGone
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("write response", "error", err)
	}
}
