package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartHTTP serves healthz and prometheus metrics on the default mux. The bot
// binary registers its webhook handler on the same mux, so one listener
// carries both.
func StartHTTP(addr, healthzBody string) error {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(healthzBody))
	})
	http.Handle("/metrics", promhttp.Handler())
	slog.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, nil)
}
