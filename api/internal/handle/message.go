package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/bill"
	"split-bot/api/internal/metrics"
	"split-bot/api/internal/session"
)

type MessageRequest struct {
	LLMName string      `json:"llm_name"`
	Items   []bill.Item `json:"items"`
	Message string      `json:"message"`
}

type MessageResponse struct {
	Reply         string              `json:"reply"`
	Modifications []bill.Modification `json:"modifications"`
	Items         []bill.Item         `json:"items"`
}

// Message interprets one utterance against the caller's item state and
// returns the reply plus the merged item collection. Interpreter failure is
// recovered here: the fixed fallback reply, zero modifications, items
// unchanged — never an error status, so the conversation can continue.
func (h *Handle) Message(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}

	engine, err := h.engs.GetEngine(req.LLMName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	start := time.Now()
	res, err := engine.InterpretCommand(ctx, req.Items, req.Message)
	metrics.ObserveEngine(engine.Name(), "interpret", start, err)
	if err != nil {
		res = ai.ChatResult{Reply: session.FallbackReply}
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Reply:         res.Reply,
		Modifications: res.Modifications,
		Items:         bill.Apply(req.Items, res.Modifications),
	})
}
