package handlers

import (
	"net/http"

	"server/internal/generation"
)

// BackgroundsList serves the fixed scene catalog for the UI picker.
func (a *App) BackgroundsList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": generation.Backgrounds})
}
