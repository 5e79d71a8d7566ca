package bill

// Item is one priced line entry from a receipt. Price is the line total as
// printed (Quantity is a display field and never enters the math). AssignedTo
// always holds the complete current set of claimants, never a partial patch.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Quantity   float64  `json:"quantity"`
	AssignedTo []string `json:"assignedTo"`
}

// Bill is the full set of receipt items plus flat tax/tip for one splitting
// session. Currency is a display label only.
type Bill struct {
	Items    []Item  `json:"items"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Currency string  `json:"currency,omitempty"`
}

// Modification replaces one item's complete claimant list.
type Modification struct {
	ItemID    string   `json:"itemId"`
	Assignees []string `json:"assignees"`
}

// PersonSummary is a derived view projection, recomputed wholesale on every
// read. Items lists the names of contributing items for display.
type PersonSummary struct {
	Name     string   `json:"name"`
	Subtotal float64  `json:"subtotal"`
	TaxShare float64  `json:"taxShare"`
	TipShare float64  `json:"tipShare"`
	Total    float64  `json:"total"`
	Items    []string `json:"items"`
}

// Summary is the result of one allocation pass. UnassignedTotal folds together
// genuinely unclaimed items and float drift from the ratio math.
type Summary struct {
	PerPerson       []PersonSummary `json:"perPerson"`
	TotalBill       float64         `json:"totalBill"`
	UnassignedTotal float64         `json:"unassignedTotal"`
}

func cloneNames(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
