package handle

import (
	"encoding/json"
	"net/http"

	"split-bot/api/internal/bill"
)

type SummaryRequest struct {
	Items []bill.Item `json:"items"`
	Tax   float64     `json:"tax"`
	Tip   float64     `json:"tip"`
}

// Summary is the pure allocation pass: no AI, no stored state, recomputed
// wholesale from the posted items.
func (h *Handle) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, bill.Summarize(req.Items, req.Tax, req.Tip))
}
