package ai

import "split-bot/api/internal/bill"

// ItemContext is the reduced item view handed to the interpreter: enough to
// match utterances against, small enough to keep the prompt cheap.
type ItemContext struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	CurrentAssignees []string `json:"currentAssignees"`
}

// ReduceItems projects the full item collection into interpreter context.
func ReduceItems(items []bill.Item) []ItemContext {
	out := make([]ItemContext, 0, len(items))
	for _, it := range items {
		assignees := it.AssignedTo
		if assignees == nil {
			assignees = []string{}
		}
		out = append(out, ItemContext{
			ID:               it.ID,
			Name:             it.Name,
			Price:            it.Price,
			CurrentAssignees: assignees,
		})
	}
	return out
}
