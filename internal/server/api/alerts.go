// Package api provides HTTP API handlers for the safetycam alert log.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/safetycam/internal/store"
)

// DefaultListLimit caps list responses when no limit is given.
const DefaultListLimit = 100

// AlertHandler handles HTTP requests for alert resources.
type AlertHandler struct {
	store *store.Store
}

// NewAlertHandler creates a new AlertHandler with the given store.
func NewAlertHandler(s *store.Store) *AlertHandler {
	return &AlertHandler{store: s}
}

// ServeHTTP routes /api/alerts and /api/alerts/{id}.
func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/alerts")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, path)
}

type alertResponse struct {
	ID           string  `json:"id"`
	Sequence     uint64  `json:"sequence"`
	FiredAt      string  `json:"fired_at"`
	Topic        string  `json:"topic"`
	Payload      string  `json:"payload"`
	Message      string  `json:"message"`
	FlipCount    int     `json:"flip_count"`
	FlipRatio    float64 `json:"flip_ratio"`
	FlipVariance float64 `json:"flip_variance"`
}

type listAlertsResponse struct {
	Alerts []alertResponse `json:"alerts"`
	Total  int             `json:"total"`
}

type failureResponse struct {
	ID        int64  `json:"id"`
	Channel   string `json:"channel"`
	Target    string `json:"target"`
	Error     string `json:"error"`
	CreatedAt string `json:"created_at"`
}

type listFailuresResponse struct {
	Failures []failureResponse `json:"failures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAlertResponse(a *store.Alert) alertResponse {
	return alertResponse{
		ID:           a.ID,
		Sequence:     a.Sequence,
		FiredAt:      a.FiredAt.Format(time.RFC3339),
		Topic:        a.Topic,
		Payload:      a.Payload,
		Message:      a.Message,
		FlipCount:    a.FlipCount,
		FlipRatio:    a.FlipRatio,
		FlipVariance: a.FlipVariance,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseLimit reads the limit query parameter.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

// list handles GET /api/alerts and returns the newest alerts first.
func (h *AlertHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := h.store.Alerts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	total, err := h.store.Alerts().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count alerts")
		return
	}

	response := listAlertsResponse{
		Alerts: make([]alertResponse, 0, len(alerts)),
		Total:  total,
	}
	for _, a := range alerts {
		response.Alerts = append(response.Alerts, toAlertResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/alerts/{id}.
func (h *AlertHandler) get(w http.ResponseWriter, id string) {
	a, err := h.store.Alerts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get alert")
		return
	}

	writeJSON(w, http.StatusOK, toAlertResponse(a))
}

// FailureHandler serves the dispatch failure log.
type FailureHandler struct {
	store *store.Store
}

// NewFailureHandler creates a new FailureHandler with the given store.
func NewFailureHandler(s *store.Store) *FailureHandler {
	return &FailureHandler{store: s}
}

// ServeHTTP handles GET /api/failures.
func (h *FailureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	failures, err := h.store.Failures().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list failures")
		return
	}

	response := listFailuresResponse{Failures: make([]failureResponse, 0, len(failures))}
	for _, f := range failures {
		response.Failures = append(response.Failures, failureResponse{
			ID:        f.ID,
			Channel:   f.Channel,
			Target:    f.Target,
			Error:     f.Error,
			CreatedAt: f.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
