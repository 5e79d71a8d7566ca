package telegram

import (
	"fmt"
	"strings"

	"split-bot/api/internal/bill"
)

// FormatBill renders the parsed receipt for the chat.
func FormatBill(b bill.Bill) string {
	var sb strings.Builder
	sb.WriteString("🧾 Here's what I read:\n")
	for _, it := range b.Items {
		sb.WriteString("• ")
		sb.WriteString(it.Name)
		if it.Quantity > 1 {
			fmt.Fprintf(&sb, " ×%g", it.Quantity)
		}
		fmt.Fprintf(&sb, " — %s%s", b.Currency, money(it.Price))
		if len(it.AssignedTo) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(it.AssignedTo, ", "))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Tax %s%s · Tip %s%s", b.Currency, money(b.Tax), b.Currency, money(b.Tip))
	return sb.String()
}

// FormatSummary renders each person's share and the grand total.
func FormatSummary(s bill.Summary, currency string) string {
	if len(s.PerPerson) == 0 {
		return fmt.Sprintf("Nobody has claimed anything yet.\nTotal bill: %s%s", currency, money(s.TotalBill))
	}

	var sb strings.Builder
	sb.WriteString("💰 Who owes what:\n")
	for _, p := range s.PerPerson {
		fmt.Fprintf(&sb, "%s: %s%s (items %s%s + tax %s%s + tip %s%s)\n",
			p.Name,
			currency, money(p.Total),
			currency, money(p.Subtotal),
			currency, money(p.TaxShare),
			currency, money(p.TipShare))
	}
	fmt.Fprintf(&sb, "Total bill: %s%s", currency, money(s.TotalBill))
	if s.UnassignedTotal > 0.01 {
		fmt.Fprintf(&sb, "\n⚠️ Unassigned: %s%s", currency, money(s.UnassignedTotal))
	}
	return sb.String()
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
