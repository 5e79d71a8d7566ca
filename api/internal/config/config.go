package config

import (
	"log/slog"
	"os"
)

type Config struct {
	Port string

	TelegramBotToken string
	WebhookURL       string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	// DefaultEngine: "gemini" | "gpt"
	DefaultEngine string

	// DefaultCurrency is the display label used when extraction returns none.
	DefaultCurrency string
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// MustEnv exits when a required variable is missing. Callers use it for the
// credentials a given binary cannot run without.
func MustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("missing required env", "key", k)
		os.Exit(1)
	}
	return v
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		DefaultEngine:   getEnv("DEFAULT_ENGINE", "gemini"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "$"),
	}
}
