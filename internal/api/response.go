package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encoding response: %v", err)
	}
}

// writeError emits the uniform error envelope every endpoint uses.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeErr maps the domain sentinels onto HTTP statuses; anything else is a
// 500 with the error text.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrSetupComplete):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrActiveConfig):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrTestRequired):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, core.ErrSetupRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads a JSON body into v with a sane size cap.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}
