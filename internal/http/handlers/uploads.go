package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type uploadResponse struct {
	Slot    string `json:"slot"`
	MIME    string `json:"mime"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Preview string `json:"preview"`
}

// Upload accepts a multipart image for the model or doll slot, normalizes it,
// and stores the artifact in the session. On failure the previously accepted
// artifact for the slot stays in place.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	slot, ok := domain.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "slot must be model or doll")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes+4096)
	file, _, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	artifact, err := a.Intake.HandleUpload(file)
	if err != nil {
		a.Logger.Warn().Err(err).Str("session_id", sess.ID).Str("slot", string(slot)).Msg("upload rejected")
		switch {
		case errors.Is(err, domain.ErrReadFailed):
			a.error(w, http.StatusBadRequest, "read_failed", "The file could not be read. Please try another image.")
		case errors.Is(err, domain.ErrDecodeFailed):
			a.error(w, http.StatusUnsupportedMediaType, "decode_failed", "That file is not a supported image.")
		default:
			a.error(w, http.StatusInternalServerError, "normalize_failed", "The image could not be processed.")
		}
		return
	}

	sess.SetArtifact(slot, artifact)
	a.json(w, http.StatusOK, uploadResponse{
		Slot:    string(slot),
		MIME:    artifact.MIME,
		Width:   artifact.Width,
		Height:  artifact.Height,
		Preview: artifact.DataURL,
	})
}
