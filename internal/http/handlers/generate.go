package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/generation"
	"server/internal/session"
)

type generateRequest struct {
	BackgroundID string `json:"background_id"`
	AspectRatio  string `json:"aspect_ratio"`
}

type generateResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// Generate validates inputs and starts the sequential six-pose run. The run
// streams results into the session, which the UI observes via SessionStatus.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	model, doll := sess.Artifacts()
	if model == nil || doll == nil {
		a.error(w, http.StatusUnprocessableEntity, "missing_input", UserMessageMissingInput)
		return
	}

	background, ok := generation.BackgroundByID(req.BackgroundID)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown background_id")
		return
	}
	ratio := domain.NormalizeAspectRatio(req.AspectRatio)

	if err := sess.BeginRun(); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			a.error(w, http.StatusConflict, "run_in_progress", "A generation run is already in progress.")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "could not start run")
		return
	}

	runID := uuid.NewString()
	go a.runGeneration(sess, model, doll, background, ratio, runID)

	a.json(w, http.StatusAccepted, generateResponse{RunID: runID, Status: "RUNNING", Total: totalPoses()})
}

// runGeneration owns the whole run lifecycle: it appends each streamed result
// and finally clears the loading flag, retaining partials on abort. The run is
// detached from the request context on purpose — once started it completes or
// fails on its own (there is no cancel action).
func (a *App) runGeneration(sess *session.Session, model, doll *domain.Artifact, background domain.Background, ratio domain.AspectRatio, runID string) {
	_, err := a.Orchestrator.GenerateAll(context.Background(), model, doll, background, ratio, runID,
		func(index int, artifact *domain.Artifact) {
			sess.AppendResult(artifact)
		})
	if err != nil {
		a.Logger.Error().Err(err).Str("session_id", sess.ID).Str("run_id", runID).Msg("generation run aborted")
		sess.FinishRun(UserMessageGenerationFailed)
		return
	}
	sess.FinishRun("")
}

func totalPoses() int {
	return len(generation.Poses)
}
