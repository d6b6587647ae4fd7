package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vivi-learn/poe-api-proxy/internal/config"
	"github.com/vivi-learn/poe-api-proxy/internal/handlers"
	"github.com/vivi-learn/poe-api-proxy/internal/services"
)

func NewRouter(cfg config.Config, trade *services.TradeService, cacheBackend string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	api := handlers.New(cfg, trade, cacheBackend, log)

	r := chi.NewRouter()
	r.Use(withCORS)
	r.Use(withRateLimit(cfg.RateLimitPerMin))
	r.Use(withRequestID)
	r.Use(withLogging(log))
	r.Use(withRecovery(log))

	r.Get("/api/v1/health", api.Health)
	r.Route("/api/{game}", func(r chi.Router) {
		r.Post("/search", api.Search)
		r.Get("/stats", api.Stats)
		r.Get("/leagues", api.Leagues)
	})

	return r
}
