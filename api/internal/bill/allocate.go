package bill

// Summarize computes each claimant's share of the bill: an equal split of
// every item they are assigned to, plus tax and tip distributed proportionally
// to their share of the assigned subtotal.
//
// Items with no claimants contribute nothing to anyone and surface in
// UnassignedTotal. If nothing is assigned at all, tax and tip stay in the
// unassigned remainder. PerPerson is ordered by first appearance across the
// item list so repeated calls render stably.
func Summarize(items []Item, tax, tip float64) Summary {
	var (
		order            []string
		people           = make(map[string]*PersonSummary)
		assignedSubtotal float64
	)

	for _, it := range items {
		n := len(it.AssignedTo)
		if n == 0 {
			continue
		}
		splitCost := it.Price / float64(n)
		assignedSubtotal += it.Price

		for _, name := range it.AssignedTo {
			p, ok := people[name]
			if !ok {
				p = &PersonSummary{Name: name}
				people[name] = p
				order = append(order, name)
			}
			p.Subtotal += splitCost
			p.Items = append(p.Items, it.Name)
		}
	}

	if assignedSubtotal > 0 {
		for _, name := range order {
			p := people[name]
			ratio := p.Subtotal / assignedSubtotal
			p.TaxShare = tax * ratio
			p.TipShare = tip * ratio
			p.Total = p.Subtotal + p.TaxShare + p.TipShare
		}
	}

	totalBill := tax + tip
	for _, it := range items {
		totalBill += it.Price
	}

	var assignedTotal float64
	perPerson := make([]PersonSummary, 0, len(order))
	for _, name := range order {
		perPerson = append(perPerson, *people[name])
		assignedTotal += people[name].Total
	}

	return Summary{
		PerPerson:       perPerson,
		TotalBill:       totalBill,
		UnassignedTotal: totalBill - assignedTotal,
	}
}
