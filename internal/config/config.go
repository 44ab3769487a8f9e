package config

import (
	"fmt"
	"os"
	"strconv"
)

// History backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all process configuration, read once from the environment at
// startup. The value is immutable after Load; nothing in the bot reads the
// environment afterwards.
type Config struct {
	TelegramAPIBase  string
	WebhookSecret    string
	WebhookURL       string
	AllowedUsernames string

	OpenAIAPIKey      string
	OpenAIChatCompURL string
	OpenAIUsageURL    string
	OpenAIModel       string

	HistoryBackend string
	HistoryDBPath  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	ListenAddr     string
	RequestTimeout int
}

// Load reads configuration from environment variables. Missing required
// values abort startup with a descriptive error.
func Load() (Config, error) {
	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if telegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required in environment")
	}
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required in environment")
	}
	allowed := os.Getenv("ALLOWED_USERNAMES")
	if allowed == "" {
		return Config{}, fmt.Errorf("ALLOWED_USERNAMES is required in environment (JSON array of usernames)")
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required in environment")
	}

	backend := envOrDefault("HISTORY_BACKEND", BackendSQLite)
	if backend != BackendSQLite && backend != BackendRedis {
		return Config{}, fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, backend)
	}

	timeout := envIntOrDefault("REQUEST_TIMEOUT_SECONDS", 40)
	if timeout <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}

	return Config{
		TelegramAPIBase:   fmt.Sprintf("https://api.telegram.org/bot%s", telegramToken),
		WebhookSecret:     secret,
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		AllowedUsernames:  allowed,
		OpenAIAPIKey:      openaiKey,
		OpenAIChatCompURL: envOrDefault("OPENAI_CHAT_COMPLETIONS_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIUsageURL:    envOrDefault("OPENAI_USAGE_URL", "https://api.openai.com/dashboard/billing/credit_grants"),
		OpenAIModel:       envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		HistoryBackend:    backend,
		HistoryDBPath:     envOrDefault("HISTORY_DB_PATH", "/state/history.db"),
		RedisAddr:         envOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envIntOrDefault("REDIS_DB", 0),
		ListenAddr:        envOrDefault("LISTEN_ADDR", ":8080"),
		RequestTimeout:    timeout,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
