package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string

	// GatewayURL points at a remote resumes API; empty keeps persistence in-process.
	GatewayURL   string
	SyncDebounce time.Duration
	WizardIdle   time.Duration

	SnapshotStore string
	RedisURL      string
	SnapshotTTL   time.Duration

	Generator            string
	GenerationPhaseDelay time.Duration
	GenerationTimeout    time.Duration
	LLMProvider          string
	LLMModel             string
	OpenAIAPIKey         string

	CatalogFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" && os.Getenv("GATEWAY_URL") == "" {
		log.Printf("DATABASE_URL or GATEWAY_URL is required in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:          dbURL,
		Env:                  env,
		GatewayURL:           strings.TrimRight(getEnv("GATEWAY_URL", ""), "/"),
		SyncDebounce:         getDuration("SYNC_DEBOUNCE", 2*time.Second),
		WizardIdle:           getDuration("WIZARD_IDLE_TTL", 30*time.Minute),
		SnapshotStore:        normalizeSnapshotStore(getEnv("SNAPSHOT_STORE", "memory")),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SnapshotTTL:          getDuration("SNAPSHOT_TTL", 24*time.Hour),
		Generator:            normalizeGenerator(getEnv("GENERATOR", "placeholder")),
		GenerationPhaseDelay: getDuration("GENERATION_PHASE_DELAY", time.Second),
		GenerationTimeout:    getDuration("GENERATION_TIMEOUT", 2*time.Minute),
		LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
		LLMModel:             getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		CatalogFile:          getEnv("CATALOG_FILE", ""),
	}
}

// loadEnvFiles loads the given files if they exist. Variables already set win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: skip %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("config: invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeSnapshotStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	default:
		return "memory"
	}
}

func normalizeGenerator(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "llm", "openai":
		return "llm"
	default:
		return "placeholder"
	}
}
