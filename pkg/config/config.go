package config

import (
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Package-level settings, filled by Load. The initial values are the
// defaults used when Load is never called (tests, tools).
var (
	AppEnv       string = "staging"
	IsStaging    bool   = true
	IsProduction bool

	Port string = "5000"

	// persistence
	StorageBackend string = "sqlite" // sqlite | mysql | bolt | redis | memory
	SQLitePath     string = "dreams.db"
	MySQLDSN       string
	BoltPath       string = "dreams.bolt"
	RedisAddr      string
	RedisPrefix    string = "dreamai:"

	// AI provider
	OpenAIAPIKey      string
	OpenAIEndpoint    string = "https://api.openai.com/v1/chat/completions"
	OpenAIBaseURL     string = "https://api.openai.com/v1"
	OpenAIAssistantID string
	OpenAIModel       string  = "gpt-4o-mini"
	OpenAITemperature float64 = 0.7
	OpenAIMaxTokens   int     = 2000
	// IsOpenAIEnabled switches between the remote client and the local interpreter.
	IsOpenAIEnabled bool
	// FirstTurnMode is "completion" (single request) or "thread" (assistant run).
	FirstTurnMode     string = "completion"
	RunPollIntervalMs int    = 1000

	// locales and defaults
	DefaultLocale    string   = "en"
	SupportedLocales []string = []string{"en", "tr"}
	DefaultsFile     string

	// app lock
	AppLockEnabled bool
	JWTSecret      string

	// runtime tunables
	RateLimitWindowSeconds int = 10
	RateLimitCapacity      int = 5
	DuplicateWindowSeconds int = 5
	ChatCacheTTLSeconds    int = 600
	ChatCacheMaxItems      int = 500
)

// loadAppEnv only reads .env outside production. A missing file is not fatal.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] cannot load .env: %v", err)
	}
}

// Load reads the environment into the package variables.
func Load() {
	loadAppEnv()

	AppEnv = strings.TrimSpace(os.Getenv("APP_ENV"))
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	Port = strOr(os.Getenv("PORT"), "5000")

	StorageBackend = strings.ToLower(strOr(os.Getenv("STORAGE_BACKEND"), "sqlite"))
	SQLitePath = strOr(os.Getenv("SQLITE_PATH"), "dreams.db")
	MySQLDSN = os.Getenv("MYSQL_DSN")
	BoltPath = strOr(os.Getenv("BOLT_PATH"), "dreams.bolt")
	RedisAddr = os.Getenv("REDIS_ADDR")
	RedisPrefix = strOr(os.Getenv("REDIS_PREFIX"), "dreamai:")

	OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	OpenAIEndpoint = strOr(os.Getenv("OPENAI_ENDPOINT"), OpenAIEndpoint)
	OpenAIBaseURL = strings.TrimRight(strOr(os.Getenv("OPENAI_BASE_URL"), OpenAIBaseURL), "/")
	OpenAIAssistantID = os.Getenv("OPENAI_ASSISTANT_ID")
	OpenAIModel = strOr(os.Getenv("OPENAI_MODEL"), "gpt-4o-mini")
	OpenAITemperature = floatOr(os.Getenv("OPENAI_TEMPERATURE"), 0.7)
	OpenAIMaxTokens = atoiOr(os.Getenv("OPENAI_MAX_TOKENS"), 2000)
	IsOpenAIEnabled = os.Getenv("IS_OPENAI_ENABLED") == "1"
	FirstTurnMode = strings.ToLower(strOr(os.Getenv("FIRST_TURN_MODE"), "completion"))
	RunPollIntervalMs = atoiOr(os.Getenv("RUN_POLL_INTERVAL_MS"), 1000)

	DefaultLocale = strOr(os.Getenv("DEFAULT_LOCALE"), "en")
	if v := strings.TrimSpace(os.Getenv("SUPPORTED_LOCALES")); v != "" {
		SupportedLocales = splitList(v)
	}
	if !slices.Contains(SupportedLocales, DefaultLocale) {
		SupportedLocales = append([]string{DefaultLocale}, SupportedLocales...)
	}
	DefaultsFile = os.Getenv("DEFAULTS_FILE")

	AppLockEnabled = os.Getenv("APP_LOCK_ENABLED") == "1"
	JWTSecret = os.Getenv("JWT_SECRET_KEY")

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 5)
	ChatCacheTTLSeconds = atoiOr(os.Getenv("CHAT_CACHE_TTL_SECONDS"), 600)
	ChatCacheMaxItems = atoiOr(os.Getenv("CHAT_CACHE_MAX_ITEMS"), 500)

	if AppLockEnabled && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set when APP_LOCK_ENABLED=1")
	}
	if IsOpenAIEnabled && OpenAIAPIKey == "" {
		log.Printf("[config] IS_OPENAI_ENABLED=1 but OPENAI_API_KEY is empty; remote calls will fail")
	}
	if FirstTurnMode == "thread" && OpenAIAssistantID == "" {
		log.Printf("[config] FIRST_TURN_MODE=thread without OPENAI_ASSISTANT_ID")
	}

	log.Printf("[config] AppEnv=%s Storage=%s Port=%s", AppEnv, StorageBackend, Port)
	log.Printf("[config] IsOpenAIEnabled=%v APIKeyPresent=%v Model=%s FirstTurn=%s",
		IsOpenAIEnabled, OpenAIAPIKey != "", OpenAIModel, FirstTurnMode)
	log.Printf("[config] Locales default=%s supported=%v AppLock=%v", DefaultLocale, SupportedLocales, AppLockEnabled)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v
	}
	return def
}

func floatOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v
	}
	return def
}

func strOr(s, def string) string {
	if v := strings.TrimSpace(s); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
