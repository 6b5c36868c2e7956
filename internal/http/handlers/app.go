package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/generation"
	"server/internal/infra"
	"server/internal/session"
	"server/internal/upload"
)

// UserMessageMissingInput is shown when generation is attempted before both
// uploads are in place.
const UserMessageMissingInput = "Please upload both a model and a doll image."

// UserMessageGenerationFailed is the single generic message for any aborted
// run; the failing pose is deliberately not distinguished.
const UserMessageGenerationFailed = "Image generation failed. The service may be rate limited — please try again in a moment."

// App bundles the handler dependencies.
type App struct {
	Config       *infra.Config
	Logger       infra.Logger
	Store        *session.Store
	Intake       *upload.Intake
	Orchestrator *generation.Orchestrator
}

// NewApp wires the handler container.
func NewApp(cfg *infra.Config, logger infra.Logger, store *session.Store, intake *upload.Intake, orch *generation.Orchestrator) *App {
	return &App{Config: cfg, Logger: logger, Store: store, Intake: intake, Orchestrator: orch}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
