package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	LogLevel    string
	SeedFile    string

	RedisAddr string
	CacheTTL  time.Duration

	UpstreamURL     string
	UpstreamTimeout time.Duration
	UpstreamRetries int

	IngestInterval time.Duration
	IngestBatch    int

	RefillWorkers  int
	PageSize       int
	DBQueryTimeout time.Duration
	ButtonSettle   time.Duration
	SessionIdle    time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

// Load reads .env (if present) and then the environment. It returns a
// usable Config together with a non-fatal error when no offer backend is
// configured, so callers can decide whether to run on the in-memory store.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getenv("APP_ENV", "development"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:     databaseURL(),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		SeedFile:        os.Getenv("SEED_FILE"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		CacheTTL:        getenvDuration("CACHE_TTL", 30*time.Second),
		UpstreamURL:     strings.TrimRight(os.Getenv("UPSTREAM_URL"), "/"),
		UpstreamTimeout: getenvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRetries: getenvInt("UPSTREAM_RETRIES", 3),
		IngestInterval:  getenvDuration("INGEST_INTERVAL", 30*time.Second),
		IngestBatch:     getenvInt("INGEST_BATCH", 200),
		RefillWorkers:   getenvInt("REFILL_WORKERS", 2),
		PageSize:        getenvInt("PAGE_SIZE", 30),
		DBQueryTimeout:  getenvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		ButtonSettle:    getenvDuration("BUTTON_SETTLE", 120*time.Millisecond),
		SessionIdle:     getenvDuration("SESSION_IDLE", 30*time.Minute),
		RateLimitRPS:    getenvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getenvInt("RATE_LIMIT_BURST", 30),
		CORSOrigins:     getenvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 30
	}
	if cfg.DatabaseURL == "" && cfg.UpstreamURL == "" {
		return cfg, fmt.Errorf("neither DATABASE_URL nor UPSTREAM_URL set")
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the libpq PG* variables.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("PGHOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + getenv("PGPORT", "5432"),
		Path:   "/" + getenv("PGDATABASE", "postgres"),
	}
	if user := os.Getenv("PGUSER"); user != "" {
		if pw := os.Getenv("PGPASSWORD"); pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return out
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return out
		}
	}
	return def
}

// getenvDuration accepts Go durations ("250ms") and bare seconds ("30").
func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
