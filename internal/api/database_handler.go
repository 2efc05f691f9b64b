package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
	"fintrack/internal/service"
)

// DatabaseHandler manages saved database configs: list, add, test, activate,
// delete, plus the migration history. Credentials never leave the server;
// responses carry a redacted copy.
type DatabaseHandler struct {
	registry *service.Registry
	validate *validator.Validate
}

func NewDatabaseHandler(registry *service.Registry) *DatabaseHandler {
	return &DatabaseHandler{
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// redact strips secrets from a config before it goes over the wire, leaving
// enough shape for the UI to label the entry.
func redact(cfg core.DatabaseConfig) core.DatabaseConfig {
	c := cfg.Credentials
	cfg.Credentials = core.Credentials{
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.Username,
		SSLMode:  c.SSLMode,
		FilePath: c.FilePath,
	}
	if c.ConnectionString != "" {
		cfg.Credentials.ConnectionString = "[redacted]"
	}
	if c.SupabaseURL != "" {
		cfg.Credentials.SupabaseURL = c.SupabaseURL
		cfg.Credentials.SupabaseAnonKey = "[redacted]"
	}
	return cfg
}

func (h *DatabaseHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.registry.Configs()
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]core.DatabaseConfig, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, redact(cfg))
	}
	writeJSON(w, http.StatusOK, out)
}

type createConfigRequest struct {
	Name        string           `json:"name" validate:"required"`
	Provider    core.Provider    `json:"provider" validate:"required"`
	Credentials core.Credentials `json:"credentials"`
}

func (h *DatabaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConfigRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.registry.SaveConfig(req.Name, req.Provider, req.Credentials)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, redact(*cfg))
}

// Test probes a saved config and records the outcome.
func (h *DatabaseHandler) Test(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.registry.Test(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type activateRequest struct {
	MigrateData bool `json:"migrateData"`
}

// Activate switches the live adapter to this config, optionally carrying the
// current data across.
func (h *DatabaseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req activateRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	cfg, err := h.registry.Activate(r.Context(), id, req.MigrateData)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*cfg))
}

func (h *DatabaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.DeleteConfig(id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *DatabaseHandler) Migrations(w http.ResponseWriter, r *http.Request) {
	logs, err := h.registry.MigrationLogs()
	if err != nil {
		writeErr(w, err)
		return
	}
	if logs == nil {
		logs = []core.MigrationLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
