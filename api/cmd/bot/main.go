package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/ai/gemini"
	"split-bot/api/internal/ai/openai"
	"split-bot/api/internal/config"
	"split-bot/api/internal/logging"
	"split-bot/api/internal/session"
	"split-bot/api/internal/store"
	"split-bot/api/internal/telegram"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8080"
	}
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		cfg.TelegramBotToken = config.MustEnv("TELEGRAM_BOT_TOKEN")
	}

	// --- Postgres ---
	dsn := resolveDSN()
	if dsn == "" {
		slog.Error("database DSN is empty: set DATABASE_URL or POSTGRES_* env vars")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		slog.Error("sql.Open", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			slog.Error("db.Ping", "err", err)
			os.Exit(1)
		}
		slog.Info("db connected", "dsn", safeDSNSummary(dsn))
	}

	if err := store.RunMigrations(db); err != nil {
		slog.Error("migrations", "err", err)
		os.Exit(1)
	}

	billRepo := store.NewBillRepo(db)
	msgRepo := store.NewMessageRepo(db)

	// weekly sweep of abandoned bills
	go purgeLoop(billRepo)

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		slog.Error("telegram auth", "err", err)
		os.Exit(1)
	}
	bot.Debug = false

	engines := telegram.Engines{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}

	var def ai.Engine = engines.Gemini
	if cfg.DefaultEngine == "gpt" || cfg.DefaultEngine == "openai" {
		def = engines.OpenAI
	}
	manager := ai.NewManager(def)

	r := &telegram.Router{
		Bot:             bot,
		EngManager:      manager,
		Sessions:        session.NewManager(billRepo, msgRepo),
		Messages:        msgRepo,
		DefaultCurrency: cfg.DefaultCurrency,
	}

	// --- HTTP mux (DefaultServeMux) ---
	// ListenForWebhook registers on the default mux, so healthz and metrics
	// go there too.
	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	http.Handle("/metrics", promhttp.Handler())

	addr := "0.0.0.0:" + cfg.Port

	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL != "" {
		startWebhookMode(addr, bot, r, webhookURL, engines)
	} else {
		startPollingMode(addr, bot, r)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, engines telegram.Engines) {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		slog.Error("webhook config", "err", err)
		os.Exit(1)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		slog.Error("webhook register", "err", err)
		os.Exit(1)
	}

	updates := bot.ListenForWebhook(path)

	go func() {
		for upd := range updates {
			r.HandleUpdate(upd, engines)
		}
		slog.Info("webhook updates channel closed")
	}()

	slog.Info("webhook listening", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("http server", "err", err)
		os.Exit(1)
	}
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	go func() {
		slog.Info("health server listening", "addr", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			slog.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	ctx := context.Background()
	runPolling(ctx, bot, func(upd tgbotapi.Update) {
		r.HandleUpdate(upd, telegram.Engines{})
	})
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			slog.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			slog.Warn("polling error", "err", err, "retry_in", d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Helpers -----------------

func purgeLoop(bills *store.BillRepo) {
	const keep = 30 * 24 * time.Hour
	t := time.NewTicker(24 * time.Hour)
	defer t.Stop()
	for range t.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := bills.PurgeOlderThan(ctx, keep)
		cancel()
		if err != nil {
			slog.Warn("bill purge", "err", err)
			continue
		}
		if n > 0 {
			slog.Info("purged stale bills", "count", n)
		}
	}
}

func resolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	user := getenvDefault("POSTGRES_USER", "splitbot")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	db := getenvDefault("POSTGRES_DB", "splitbot")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// shortHash derives a stable, non-guessable webhook path from the bot token.
// FNV-1a, not crypto.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
