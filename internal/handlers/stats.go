package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vivi-learn/poe-api-proxy/internal/models"
	"github.com/vivi-learn/poe-api-proxy/internal/services"
)

// Stats serves the cached stat metadata document. The X-Cache header reports
// whether the payload came from the cache, a live fetch, or a stale fallback.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")

	body, source, err := a.trade.Stats(r.Context(), game)
	if err != nil {
		if errors.Is(err, services.ErrUnknownGame) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "unknown_game"})
			return
		}
		writeUpstreamError(w, err)
		return
	}

	w.Header().Set("X-Cache", string(source))
	writeRaw(w, http.StatusOK, body)
}

// Leagues serves the cached league list.
func (a *API) Leagues(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")

	body, source, err := a.trade.Leagues(r.Context(), game)
	if err != nil {
		if errors.Is(err, services.ErrUnknownGame) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "unknown_game"})
			return
		}
		writeUpstreamError(w, err)
		return
	}

	w.Header().Set("X-Cache", string(source))
	writeRaw(w, http.StatusOK, body)
}
