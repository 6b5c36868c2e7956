package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/session"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type statusResponse struct {
	Images    []string `json:"images"`
	Completed int      `json:"completed"`
	Total     int      `json:"total"`
	Running   bool     `json:"running"`
	Error     string   `json:"error,omitempty"`
	HasModel  bool     `json:"has_model"`
	HasDoll   bool     `json:"has_doll"`
}

// SessionCreate opens a fresh empty session for one browser tab.
func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	sess := a.Store.Create()
	a.Logger.Debug().Str("session_id", sess.ID).Msg("session created")
	a.json(w, http.StatusCreated, sessionResponse{SessionID: sess.ID})
}

// SessionStatus reports the run state the UI polls while generating.
func (a *App) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	a.json(w, http.StatusOK, statusResponse{
		Images:    snap.Images,
		Completed: snap.Completed,
		Total:     totalPoses(),
		Running:   snap.Running,
		Error:     snap.Error,
		HasModel:  snap.HasModel,
		HasDoll:   snap.HasDoll,
	})
}

func (a *App) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "session_id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session_id required")
		return nil, false
	}
	sess, ok := a.Store.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found or expired")
		return nil, false
	}
	return sess, true
}
