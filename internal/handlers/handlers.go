package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vivi-learn/poe-api-proxy/internal/config"
	"github.com/vivi-learn/poe-api-proxy/internal/services"
)

type API struct {
	cfg   config.Config
	trade *services.TradeService
	cache string
	log   *zap.Logger
}

// New wires the handler set. cacheBackend names the selected store ("redis"
// or "memory") for the health payload.
func New(cfg config.Config, trade *services.TradeService, cacheBackend string, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{cfg: cfg, trade: trade, cache: cacheBackend, log: log}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw forwards an upstream document verbatim.
func writeRaw(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
