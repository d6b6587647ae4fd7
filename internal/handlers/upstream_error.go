package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/vivi-learn/poe-api-proxy/internal/models"
	"github.com/vivi-learn/poe-api-proxy/internal/services"
)

// writeUpstreamError maps an orchestrator failure onto the response. Trade
// API failure statuses are reproduced toward the caller; transport-level
// failures become 502 and timeouts 504.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
		}
		writeJSON(w, upErr.Status, models.ErrorResponse{Error: err.Error(), UpstreamStatus: upErr.Status})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, models.ErrorResponse{Error: "upstream_timeout"})
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		writeJSON(w, http.StatusGatewayTimeout, models.ErrorResponse{Error: "upstream_timeout"})
		return
	}
	writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
}
