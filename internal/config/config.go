// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database paths, model/provider settings, retrieval tuning, rate
// limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-juris-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-juris-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig defines language-model provider settings (OpenAI-compatible).
type LLMConfig struct {
	APIKey         string        // OPENAI_API_KEY
	BaseURL        string        // OPENAI_BASE_URL, empty = provider default
	ChatModel      string        // CHAT_MODEL
	EmbeddingModel string        // EMBEDDING_MODEL
	RequestTimeout time.Duration // LLM_REQUEST_TIMEOUT
}

// RetrievalConfig tunes chunking, embedding, and semantic search.
type RetrievalConfig struct {
	ChunkTargetRunes  int     // CHUNK_TARGET_RUNES, soft max per chunk
	ChunkOverlapRunes int     // CHUNK_OVERLAP_RUNES, shared window between chunks
	EmbedConcurrency  int     // EMBED_CONCURRENCY, parallel embedding calls
	TopK              int     // RETRIEVAL_TOPK, chunks per query
	ThesisTopK        int     // THESIS_TOPK, theses per query
	ThesisThreshold   float64 // THESIS_SIMILARITY_THRESHOLD in [0,1]
	ContextBudget     int     // CONTEXT_BUDGET_RUNES, assembled context cap
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s; must cover a full stream
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath         string // SQLite path
	DefaultPersona string // system persona used when no override is set

	// Model provider
	LLM LLMConfig

	// Retrieval / context assembly
	Retrieval RetrievalConfig

	// Background extraction worker
	WorkerInterval time.Duration // EXTRACTION_POLL_INTERVAL between queue polls

	// Reference cache
	RedisAddr string        // REDIS_ADDR, empty = in-memory cache
	RefTTL    time.Duration // REFERENCE_TTL for cached external references

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:         getenv("DB_PATH", "app.db"),
		DefaultPersona: getenv("DEFAULT_PERSONA", ""),

		// Model provider
		LLM: LLMConfig{
			APIKey:         getenv("OPENAI_API_KEY", ""),
			BaseURL:        getenv("OPENAI_BASE_URL", ""),
			ChatModel:      getenv("CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
			RequestTimeout: getdur("LLM_REQUEST_TIMEOUT", 60*time.Second),
		},

		// Retrieval / context assembly
		Retrieval: RetrievalConfig{
			ChunkTargetRunes:  getint("CHUNK_TARGET_RUNES", 1000),
			ChunkOverlapRunes: getint("CHUNK_OVERLAP_RUNES", 200),
			EmbedConcurrency:  getint("EMBED_CONCURRENCY", 4),
			TopK:              getint("RETRIEVAL_TOPK", 4),
			ThesisTopK:        getint("THESIS_TOPK", 3),
			ThesisThreshold:   getfloat("THESIS_SIMILARITY_THRESHOLD", 0.80),
			ContextBudget:     getint("CONTEXT_BUDGET_RUNES", 24000),
		},

		// Background extraction worker
		WorkerInterval: getdur("EXTRACTION_POLL_INTERVAL", 5*time.Second),

		// Reference cache
		RedisAddr: getenv("REDIS_ADDR", ""),
		RefTTL:    getdur("REFERENCE_TTL", 6*time.Hour),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-juris-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.LLM.RequestTimeout <= 0 {
		return cfg, errors.New("LLM_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.Retrieval.ChunkTargetRunes < 1 {
		return cfg, errors.New("CHUNK_TARGET_RUNES must be >= 1")
	}
	if cfg.Retrieval.ChunkOverlapRunes < 0 || cfg.Retrieval.ChunkOverlapRunes >= cfg.Retrieval.ChunkTargetRunes {
		return cfg, errors.New("CHUNK_OVERLAP_RUNES must be in [0, CHUNK_TARGET_RUNES)")
	}
	if cfg.Retrieval.EmbedConcurrency < 1 {
		return cfg, errors.New("EMBED_CONCURRENCY must be >= 1")
	}
	if cfg.Retrieval.TopK < 1 || cfg.Retrieval.ThesisTopK < 1 {
		return cfg, errors.New("RETRIEVAL_TOPK and THESIS_TOPK must be >= 1")
	}
	if cfg.Retrieval.ThesisThreshold < 0 || cfg.Retrieval.ThesisThreshold > 1 {
		return cfg, errors.New("THESIS_SIMILARITY_THRESHOLD must be between 0 and 1")
	}
	if cfg.Retrieval.ContextBudget < 1 {
		return cfg, errors.New("CONTEXT_BUDGET_RUNES must be >= 1")
	}
	if cfg.WorkerInterval <= 0 {
		return cfg, errors.New("EXTRACTION_POLL_INTERVAL must be > 0")
	}
	if cfg.RefTTL <= 0 {
		return cfg, errors.New("REFERENCE_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- env helpers ----

func getenv(k, def string) string {
	return sysutil.FirstNonEmpty(os.Getenv(k), def)
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	if sysutil.IsTruthy(v) {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
