package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"split-bot/api/internal/metrics"
	"split-bot/api/internal/session"
	"split-bot/api/internal/util"
)

type ExtractRequest struct {
	LLMName  string `json:"llm_name"`
	ImageB64 string `json:"image_b64"` // raw base64 or data: URL
	Mime     string `json:"mime,omitempty"`
}

// Extract turns a receipt photo into a structured bill with every item
// unassigned. Failure yields no partial data: the caller stays in the upload
// state.
func (h *Handle) Extract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	img, hintMIME, err := util.DecodeBase64MaybeDataURL(strings.TrimSpace(req.ImageB64))
	if err != nil || len(img) == 0 {
		http.Error(w, "bad image_b64", http.StatusBadRequest)
		return
	}
	mime := req.Mime
	if mime == "" {
		mime = hintMIME
	}
	if mime == "" {
		mime = util.SniffMimeHTTP(img)
	}

	engine, err := h.engs.GetEngine(req.LLMName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 180*time.Second)
	defer cancel()

	start := time.Now()
	b, err := engine.ExtractReceipt(ctx, img, mime)
	metrics.ObserveEngine(engine.Name(), "extract", start, err)
	if err != nil {
		http.Error(w, "extract error: "+err.Error(), http.StatusBadGateway)
		return
	}
	session.NormalizeBill(&b, h.DefaultCurrency)

	writeJSON(w, http.StatusOK, b)
}
