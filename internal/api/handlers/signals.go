// Package handlers implements the API's request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// Recent-signal listing bounds
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// SignalHandler serves emitted signals and cooldown state
// ⭐ SSOT: 시그널 API 핸들러는 이 구조체에서만
type SignalHandler struct {
	store  contracts.SignalStore
	logger *logger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(store contracts.SignalStore, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		store:  store,
		logger: log,
	}
}

// GetRecent returns the most recent signals, newest first
// GET /api/signals/recent?limit=20
func (h *SignalHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	events, err := h.store.RecentSignals(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list recent signals")
		respondError(w, http.StatusInternalServerError, "Failed to list recent signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(events),
		"signals": events,
	})
}

// GetState returns the cooldown state for a dedupe fingerprint
// GET /api/signals/state/{key}
func (h *SignalHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	state, err := h.store.GetState(ctx, key)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No state for fingerprint")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("dedupe_key", key).Error("Failed to load signal state")
		respondError(w, http.StatusInternalServerError, "Failed to load signal state")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
