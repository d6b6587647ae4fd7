package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vivi-learn/poe-api-proxy/internal/models"
	"github.com/vivi-learn/poe-api-proxy/internal/services"
)

// Search proxies the two-step trade search. A request without a query is
// rejected up front, before any gate or upstream interaction happens.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid_body"})
		return
	}

	resp, err := a.trade.Search(r.Context(), game, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingQuery):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "missing_query"})
		case errors.Is(err, services.ErrUnknownGame):
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "unknown_game"})
		default:
			writeUpstreamError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
