package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/service"
)

// InitHandler serves the first-run setup wizard endpoints. These are the only
// unauthenticated write endpoints, guarded by the one-shot setup check.
type InitHandler struct {
	initializer *service.Initializer
	validate    *validator.Validate
}

func NewInitHandler(initializer *service.Initializer) *InitHandler {
	return &InitHandler{
		initializer: initializer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *InitHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.initializer.Status()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *InitHandler) Context(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.initializer.Context())
}

// TestDatabase validates and probes candidate credentials without persisting
// anything. Validation problems come back all at once.
func (h *InitHandler) TestDatabase(w http.ResponseWriter, r *http.Request) {
	var req service.DatabaseSetup
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	validation, result := h.initializer.TestDatabase(r.Context(), req)
	if !validation.IsValid {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    false,
			"validation": validation,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type initializeRequest struct {
	Admin    service.AdminSetup    `json:"admin"`
	Database service.DatabaseSetup `json:"database"`
}

// Initialize completes setup: admin account plus activated database, once.
func (h *InitHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req.Admin); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req.Database); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.initializer.Initialize(r.Context(), req.Admin, req.Database)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}
