package handlers

import (
	"net/http"
	"os"

	"github.com/vivi-learn/poe-api-proxy/internal/models"
)

// Health reports process state. It deliberately does not probe the trade API:
// a probe would consume rate-gate slots the proxy exists to conserve.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	resp := models.HealthResponse{
		Ok:      true,
		TsISO:   nowISO(),
		Service: "poe-api-proxy",
		Version: os.Getenv("SERVICE_VERSION"),
		Games:   a.trade.Games(),
		Cache:   a.cache,
		Env: map[string]bool{
			"USER_AGENT": os.Getenv("USER_AGENT") != "",
			"REDIS_URL":  os.Getenv("REDIS_URL") != "",
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
