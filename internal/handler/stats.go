package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xtding233/gacha-sim/internal/logger"
	"github.com/xtding233/gacha-sim/internal/stats"
)

const maxBodyBytes = 1 << 12

// StatsRequest is the POST /api/stats body.
type StatsRequest struct {
	Type   string   `json:"type" validate:"required,oneof=visitor spent"`
	Amount *float64 `json:"amount" validate:"required_if=Type spent"`
}

// HandleGetStats returns the global counters.
func HandleGetStats(svc stats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		c, err := svc.Get(r.Context())
		if err != nil {
			log.Error("Failed to fetch stats", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// HandleRecordStats applies a visitor or spent event and returns the counters.
func HandleRecordStats(svc stats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req StatsRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			log.Warn("Failed to decode stats request", "error", err)
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			log.Warn("Invalid stats request", "error", err)
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		ev := stats.Event{Type: stats.EventType(req.Type)}
		if req.Amount != nil {
			ev.Amount = *req.Amount
		}
		c, err := svc.Record(r.Context(), ev)
		if err != nil {
			if errors.Is(err, stats.ErrInvalidAmount) || errors.Is(err, stats.ErrUnknownEventType) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Error("Failed to update stats", "error", err, "type", req.Type)
			respondError(w, http.StatusInternalServerError, "Failed to update stats")
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// HandleHealthz reports liveness.
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
