package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vivi-learn/poe-api-proxy/internal/config"
	"github.com/vivi-learn/poe-api-proxy/internal/models"
)

// maxFetchIDs bounds how many result IDs a single detail-fetch call may
// carry, matching the trade API's own per-call limit. Enforced regardless of
// the requested limit.
const maxFetchIDs = 10

var (
	ErrMissingQuery = errors.New("missing trade query")
	ErrUnknownGame  = errors.New("unknown game")
)

// TradeService fronts the trade API trees for both game versions. Search and
// detail-fetch calls are rate-gated only; the rarely changing metadata
// resources (stats, leagues) additionally go through the TTL cache with
// stale fallback.
type TradeService struct {
	cfg     config.Config
	clients map[string]*PoeClient
	gate    *RateGate
	fetcher *CachedFetcher
	log     *zap.Logger
}

func NewTradeService(cfg config.Config, store Store, log *zap.Logger) *TradeService {
	if log == nil {
		log = zap.NewNop()
	}
	gate := NewRateGate()
	cache := NewTTLCache(store)
	return &TradeService{
		cfg: cfg,
		clients: map[string]*PoeClient{
			"poe1": NewPoeClient(cfg.Poe1TradeBase, cfg.UserAgent, cfg.RequestTimeout),
			"poe2": NewPoeClient(cfg.Poe2TradeBase, cfg.UserAgent, cfg.RequestTimeout),
		},
		gate:    gate,
		fetcher: NewCachedFetcher(gate, cache, log),
		log:     log,
	}
}

func (s *TradeService) Games() []string {
	games := make([]string, 0, len(s.clients))
	for g := range s.clients {
		games = append(games, g)
	}
	sort.Strings(games)
	return games
}

func (s *TradeService) client(game string) (*PoeClient, error) {
	c, ok := s.clients[game]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
	return c, nil
}

// upstream wire shapes

type searchUpstreamRequest struct {
	Query json.RawMessage   `json:"query"`
	Sort  map[string]string `json:"sort"`
}

type searchUpstreamResponse struct {
	ID     string   `json:"id"`
	Result []string `json:"result"`
	Total  int      `json:"total"`
}

type fetchUpstreamResponse struct {
	Result []struct {
		ID      string `json:"id"`
		Listing struct {
			Indexed string `json:"indexed"`
			Whisper string `json:"whisper"`
			Account struct {
				Name              string `json:"name"`
				LastCharacterName string `json:"lastCharacterName"`
			} `json:"account"`
			Price *struct {
				Type     string  `json:"type"`
				Amount   float64 `json:"amount"`
				Currency string  `json:"currency"`
			} `json:"price"`
		} `json:"listing"`
		Item struct {
			Name      string `json:"name"`
			TypeLine  string `json:"typeLine"`
			BaseType  string `json:"baseType"`
			Ilvl      int    `json:"ilvl"`
			Corrupted bool   `json:"corrupted"`
		} `json:"item"`
	} `json:"result"`
}

// Search runs the two-step search flow: a gated search call producing a
// result-set ID, then a gated detail fetch for at most maxFetchIDs of those
// results. Nothing here is cached and failures propagate directly; search
// results are request-specific and have no useful stale form.
func (s *TradeService) Search(ctx context.Context, game string, req models.SearchRequest) (models.SearchResponse, error) {
	var out models.SearchResponse

	client, err := s.client(game)
	if err != nil {
		return out, err
	}
	if emptyQuery(req.Query) {
		return out, ErrMissingQuery
	}

	league := req.League
	if league == "" {
		league = s.cfg.DefaultLeague
	}

	payload, err := json.Marshal(searchUpstreamRequest{
		Query: req.Query,
		Sort:  map[string]string{"price": "asc"},
	})
	if err != nil {
		return out, err
	}

	s.gate.Wait(game+":search", s.cfg.SearchMinDelay)
	body, err := client.Post(ctx, "/search/"+url.PathEscape(league), payload)
	if err != nil {
		return out, err
	}
	var sr searchUpstreamResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return out, fmt.Errorf("decode search response: %w", err)
	}

	out = models.SearchResponse{
		TsISO:    time.Now().UTC().Format(time.RFC3339),
		Game:     game,
		League:   league,
		QueryID:  sr.ID,
		Total:    sr.Total,
		Listings: []models.Listing{},
	}

	ids := capIDs(sr.Result, req.Limit)
	if len(ids) == 0 {
		return out, nil
	}

	s.gate.Wait(game+":fetch", s.cfg.FetchMinDelay)
	body, err = client.Get(ctx, "/fetch/"+strings.Join(ids, ",")+"?query="+url.QueryEscape(sr.ID))
	if err != nil {
		return out, err
	}
	var fr fetchUpstreamResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return out, fmt.Errorf("decode fetch response: %w", err)
	}

	out.Listings = shapeListings(fr)
	return out, nil
}

// Stats serves the item/stat metadata document for a game version, cached
// for CacheTTLStats with stale fallback.
func (s *TradeService) Stats(ctx context.Context, game string) (json.RawMessage, Source, error) {
	client, err := s.client(game)
	if err != nil {
		return nil, "", err
	}
	return s.fetcher.Get(ctx, "stats:"+game, game+":stats", s.cfg.CacheTTLStats, s.cfg.StatsMinDelay,
		func(ctx context.Context) ([]byte, error) {
			return client.Get(ctx, "/data/stats")
		})
}

// Leagues serves the league list for a game version, cached for
// CacheTTLLeagues with stale fallback.
func (s *TradeService) Leagues(ctx context.Context, game string) (json.RawMessage, Source, error) {
	client, err := s.client(game)
	if err != nil {
		return nil, "", err
	}
	return s.fetcher.Get(ctx, "leagues:"+game, game+":leagues", s.cfg.CacheTTLLeagues, s.cfg.StatsMinDelay,
		func(ctx context.Context) ([]byte, error) {
			return client.Get(ctx, "/data/leagues")
		})
}

func emptyQuery(q json.RawMessage) bool {
	trimmed := bytes.TrimSpace(q)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}

// capIDs applies the caller's limit bounded by maxFetchIDs.
func capIDs(ids []string, limit int) []string {
	n := maxFetchIDs
	if limit > 0 && limit < n {
		n = limit
	}
	if len(ids) < n {
		n = len(ids)
	}
	return ids[:n]
}

func shapeListings(fr fetchUpstreamResponse) []models.Listing {
	out := make([]models.Listing, 0, len(fr.Result))
	for _, r := range fr.Result {
		l := models.Listing{
			ID:         r.ID,
			Name:       r.Item.Name,
			TypeLine:   r.Item.TypeLine,
			BaseType:   r.Item.BaseType,
			ItemLevel:  r.Item.Ilvl,
			Corrupted:  r.Item.Corrupted,
			Seller:     r.Listing.Account.Name,
			Character:  r.Listing.Account.LastCharacterName,
			Whisper:    r.Listing.Whisper,
			IndexedISO: r.Listing.Indexed,
		}
		if p := r.Listing.Price; p != nil {
			l.Price = &models.Price{Amount: p.Amount, Currency: p.Currency, Type: p.Type}
		}
		out = append(out, l)
	}
	return out
}
