// Package handle is the stateless JSON surface over the two AI boundaries and
// the allocation engine. Callers own their bill state; every request carries
// it in full.
package handle

import (
	"encoding/json"
	"net/http"

	"split-bot/api/internal/ai"
)

type Handle struct {
	engs *ai.Engines

	// DefaultCurrency labels extracted bills that carry no currency.
	DefaultCurrency string
}

func New(engs *ai.Engines, defaultCurrency string) *Handle {
	return &Handle{engs: engs, DefaultCurrency: defaultCurrency}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
