package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"server/pkg/zip"
)

// poseFilename yields the deterministic 1-indexed download name. The .png
// extension is fixed regardless of payload media type, matching the names the
// UI has always produced.
func poseFilename(index int) string {
	return fmt.Sprintf("promo-doll-pose-%d.png", index+1)
}

// ImageDownload serves a single completed composite by zero-based index.
func (a *App) ImageDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "index must be an integer")
		return
	}
	artifact, ok := sess.ResultAt(index)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "no image at that index")
		return
	}

	w.Header().Set("Content-Type", artifact.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", poseFilename(index)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

// ArchiveDownload bundles every completed composite into one zip using the
// same 1-indexed naming as the single download.
func (a *App) ArchiveDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	results := sess.Results()
	if len(results) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no images to download yet")
		return
	}

	assets := make([]zip.Asset, len(results))
	for i, res := range results {
		assets[i] = zip.Asset{Filename: poseFilename(i), MIME: res.MIME, Data: res.Data}
	}
	archive, err := zip.Archive(assets)
	if err != nil {
		a.Logger.Error().Err(err).Str("session_id", sess.ID).Msg("archive build failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=promo-doll-poses.zip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
