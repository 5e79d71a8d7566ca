// splitsmart is the stateless HTTP companion to the bot: the same extraction,
// interpretation and allocation passes exposed as JSON endpoints for web and
// mobile clients that keep bill state on their side.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/ai/gemini"
	"split-bot/api/internal/ai/openai"
	"split-bot/api/internal/config"
	"split-bot/api/internal/handle"
	"split-bot/api/internal/httpserver"
	"split-bot/api/internal/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	engines := &ai.Engines{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}
	h := handle.New(engines, cfg.DefaultCurrency)

	http.HandleFunc("/v1/bill/extract", h.Extract)
	http.HandleFunc("/v1/bill/message", h.Message)
	http.HandleFunc("/v1/bill/summary", h.Summary)

	addr := ":" + cfg.Port
	if err := httpserver.StartHTTP(addr, "ok"); err != nil {
		slog.Error("http server", "err", err)
		os.Exit(1)
	}
}
