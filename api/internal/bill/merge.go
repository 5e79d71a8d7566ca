package bill

// Apply merges a batch of assignment modifications onto the item collection
// and returns a new slice; neither input is mutated. Each matched item's
// claimant list is replaced wholesale with the modification's assignees.
// Modifications naming an unknown item id are ignored: the interpreter's view
// of the bill can be stale, and a miss is expected, not an error. If two
// modifications in one batch target the same item, the later one wins.
func Apply(items []Item, mods []Modification) []Item {
	assignees := make(map[string][]string, len(mods))
	for _, m := range mods {
		assignees[m.ItemID] = m.Assignees
	}

	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if repl, ok := assignees[it.ID]; ok {
			out[i].AssignedTo = cloneNames(repl)
		} else {
			out[i].AssignedTo = cloneNames(it.AssignedTo)
		}
	}
	return out
}
