package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
)

const maxBodyBytes = 1 << 20

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErrorBody(w, http.StatusBadRequest, msg)
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// queryLimit parses ?limit=; absent means 0 (store default).
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGenerationFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrCancelled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := observability.LoggerFromContext(r.Context())

	var msg string
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		log.Info("request rejected", "status", status, "error", err)
		msg = err.Error()
	case http.StatusBadGateway:
		log.Error("generation failed", "error", err)
		msg = "Mira could not produce a reply. Please try again."
	case http.StatusGatewayTimeout:
		log.Warn("request cancelled", "error", err)
		msg = "the request was cancelled or timed out"
	default:
		log.Error("internal error", "error", err)
		msg = "internal server error"
	}
	writeErrorBody(w, status, msg)
}
