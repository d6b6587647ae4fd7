package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Poe1TradeBase   string
	Poe2TradeBase   string
	UserAgent       string
	DefaultLeague   string
	RedisURL        string
	RequestTimeout  time.Duration
	SearchMinDelay  time.Duration
	FetchMinDelay   time.Duration
	StatsMinDelay   time.Duration
	CacheTTLStats   time.Duration
	CacheTTLLeagues time.Duration
	RateLimitPerMin int
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		Poe1TradeBase:   getEnv("POE1_TRADE_BASE", "https://www.pathofexile.com/api/trade"),
		Poe2TradeBase:   getEnv("POE2_TRADE_BASE", "https://www.pathofexile.com/api/trade2"),
		UserAgent:       getEnv("USER_AGENT", "poe-api-proxy/1.0 (+https://github.com/vivi-learn/poe-api-proxy)"),
		DefaultLeague:   getEnv("DEFAULT_LEAGUE", "Standard"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		SearchMinDelay:  getEnvMillis("SEARCH_MIN_DELAY_MS", 2000*time.Millisecond),
		FetchMinDelay:   getEnvMillis("FETCH_MIN_DELAY_MS", 2000*time.Millisecond),
		StatsMinDelay:   getEnvMillis("STATS_MIN_DELAY_MS", 5000*time.Millisecond),
		CacheTTLStats:   getEnvDuration("CACHE_TTL_STATS", 24*time.Hour),
		CacheTTLLeagues: getEnvDuration("CACHE_TTL_LEAGUES", 7*24*time.Hour),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(i) * time.Millisecond
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
