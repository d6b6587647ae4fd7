package models

import "encoding/json"

// SearchRequest is the consumer-facing search payload. Query is forwarded to
// the trade API untouched; the proxy does not interpret trade query shapes.
type SearchRequest struct {
	League string          `json:"league,omitempty"`
	Query  json.RawMessage `json:"query,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

type SearchResponse struct {
	TsISO    string    `json:"tsISO"`
	Game     string    `json:"game"`
	League   string    `json:"league"`
	QueryID  string    `json:"query_id"`
	Total    int       `json:"total"`
	Listings []Listing `json:"listings"`
}

// Listing is the shaped subset of a trade listing the proxy exposes.
type Listing struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	TypeLine   string `json:"type_line"`
	BaseType   string `json:"base_type,omitempty"`
	ItemLevel  int    `json:"item_level,omitempty"`
	Corrupted  bool   `json:"corrupted,omitempty"`
	Price      *Price `json:"price,omitempty"`
	Seller     string `json:"seller,omitempty"`
	Character  string `json:"character,omitempty"`
	Whisper    string `json:"whisper,omitempty"`
	IndexedISO string `json:"indexed_iso,omitempty"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Type     string  `json:"type,omitempty"`
}

type HealthResponse struct {
	Ok      bool            `json:"ok"`
	TsISO   string          `json:"tsISO"`
	Service string          `json:"service"`
	Version string          `json:"version,omitempty"`
	Games   []string        `json:"games"`
	Cache   string          `json:"cache"`
	Env     map[string]bool `json:"env"`
}

type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}
