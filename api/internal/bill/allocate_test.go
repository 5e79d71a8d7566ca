package bill

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func person(t *testing.T, s Summary, name string) PersonSummary {
	t.Helper()
	for _, p := range s.PerPerson {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no summary for %q", name)
	return PersonSummary{}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		items    []Item
		tax, tip float64
		validate func(t *testing.T, s Summary)
	}{
		{
			name: "single claimant takes full tax and tip",
			items: []Item{
				{ID: "1", Name: "Burger", Price: 10, AssignedTo: []string{"Tom"}},
				{ID: "2", Name: "Soda", Price: 2},
			},
			tax: 1, tip: 2,
			validate: func(t *testing.T, s Summary) {
				tom := person(t, s, "Tom")
				if !approx(tom.Subtotal, 10) || !approx(tom.TaxShare, 1) || !approx(tom.TipShare, 2) || !approx(tom.Total, 13) {
					t.Errorf("Tom = %+v, want subtotal 10 tax 1 tip 2 total 13", tom)
				}
				if !approx(s.TotalBill, 15) {
					t.Errorf("TotalBill = %v, want 15", s.TotalBill)
				}
				if !approx(s.UnassignedTotal, 2) {
					t.Errorf("UnassignedTotal = %v, want 2 (the soda)", s.UnassignedTotal)
				}
			},
		},
		{
			name: "three-way even split",
			items: []Item{
				{ID: "1", Name: "Platter", Price: 9, AssignedTo: []string{"A", "B", "C"}},
			},
			validate: func(t *testing.T, s Summary) {
				for _, name := range []string{"A", "B", "C"} {
					p := person(t, s, name)
					if !approx(p.Subtotal, 3) || !approx(p.Total, 3) {
						t.Errorf("%s = %+v, want subtotal 3 total 3", name, p)
					}
				}
				if !approx(s.UnassignedTotal, 0) {
					t.Errorf("UnassignedTotal = %v, want 0", s.UnassignedTotal)
				}
			},
		},
		{
			name: "tax and tip distributed proportionally to subtotal",
			items: []Item{
				{ID: "1", Name: "Steak", Price: 30, AssignedTo: []string{"Alice"}},
				{ID: "2", Name: "Salad", Price: 10, AssignedTo: []string{"Bob"}},
			},
			tax: 4, tip: 8,
			validate: func(t *testing.T, s Summary) {
				alice, bob := person(t, s, "Alice"), person(t, s, "Bob")
				if !approx(alice.TaxShare, 3) || !approx(bob.TaxShare, 1) {
					t.Errorf("tax shares = %v/%v, want 3/1", alice.TaxShare, bob.TaxShare)
				}
				if !approx(alice.TipShare, 6) || !approx(bob.TipShare, 2) {
					t.Errorf("tip shares = %v/%v, want 6/2", alice.TipShare, bob.TipShare)
				}
				// same ratio for tax as for subtotal
				if math.Abs(alice.TaxShare/bob.TaxShare-alice.Subtotal/bob.Subtotal) > eps {
					t.Errorf("tax share ratio diverges from subtotal ratio")
				}
			},
		},
		{
			name: "nothing assigned absorbs tax and tip into the remainder",
			items: []Item{
				{ID: "1", Name: "Burger", Price: 10},
			},
			tax: 1, tip: 2,
			validate: func(t *testing.T, s Summary) {
				if len(s.PerPerson) != 0 {
					t.Errorf("PerPerson = %+v, want empty", s.PerPerson)
				}
				if !approx(s.TotalBill, 13) || !approx(s.UnassignedTotal, 13) {
					t.Errorf("totals = %v/%v, want 13/13", s.TotalBill, s.UnassignedTotal)
				}
			},
		},
		{
			name:  "empty bill",
			items: nil,
			validate: func(t *testing.T, s Summary) {
				if len(s.PerPerson) != 0 || s.TotalBill != 0 || s.UnassignedTotal != 0 {
					t.Errorf("want all-zero summary, got %+v", s)
				}
			},
		},
		{
			name: "shared item never double-counts its price",
			items: []Item{
				{ID: "1", Name: "Pizza", Price: 21, AssignedTo: []string{"A", "B", "C", "D", "E", "F", "G"}},
			},
			tax: 0, tip: 0,
			validate: func(t *testing.T, s Summary) {
				var sum float64
				for _, p := range s.PerPerson {
					sum += p.Subtotal
				}
				if math.Abs(sum-21) > eps {
					t.Errorf("sum of subtotals = %v, want exactly the item price 21", sum)
				}
			},
		},
		{
			name: "negative tip propagates arithmetically",
			items: []Item{
				{ID: "1", Name: "Burger", Price: 10, AssignedTo: []string{"Tom"}},
			},
			tax: 0, tip: -2,
			validate: func(t *testing.T, s Summary) {
				tom := person(t, s, "Tom")
				if !approx(tom.Total, 8) {
					t.Errorf("Tom total = %v, want 8", tom.Total)
				}
			},
		},
		{
			name: "contributing item names recorded per person",
			items: []Item{
				{ID: "1", Name: "Burger", Price: 10, AssignedTo: []string{"Tom"}},
				{ID: "2", Name: "Fries", Price: 4, AssignedTo: []string{"Tom", "Sarah"}},
			},
			validate: func(t *testing.T, s Summary) {
				tom := person(t, s, "Tom")
				if len(tom.Items) != 2 || tom.Items[0] != "Burger" || tom.Items[1] != "Fries" {
					t.Errorf("Tom items = %v, want [Burger Fries]", tom.Items)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Summarize(tt.items, tt.tax, tt.tip))
		})
	}
}

// Conservation: everyone's total plus the unassigned remainder must add back
// up to the whole bill, whatever the assignment shape.
func TestSummarizeConservation(t *testing.T) {
	configs := [][]Item{
		{
			{ID: "1", Name: "Burger", Price: 10.35, AssignedTo: []string{"Tom"}},
			{ID: "2", Name: "Soda", Price: 2.10},
			{ID: "3", Name: "Wings", Price: 13.37, AssignedTo: []string{"Tom", "Ann", "Bo"}},
		},
		{
			{ID: "1", Name: "Tasting menu", Price: 99.99, AssignedTo: []string{"A", "B", "C", "D", "E", "F", "G"}},
		},
		{
			{ID: "1", Name: "Espresso", Price: 3.5},
			{ID: "2", Name: "Cake", Price: 7.25},
		},
	}

	for i, items := range configs {
		s := Summarize(items, 3.17, 5.01)
		var sum float64
		for _, p := range s.PerPerson {
			sum += p.Total
		}
		if math.Abs(sum+s.UnassignedTotal-s.TotalBill) > 1e-6 {
			t.Errorf("config %d: sum(total)+unassigned = %v, want %v", i, sum+s.UnassignedTotal, s.TotalBill)
		}
	}
}

func TestSummarizeStableOrder(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "Burger", Price: 10, AssignedTo: []string{"Tom", "Ann"}},
		{ID: "2", Name: "Soda", Price: 2, AssignedTo: []string{"Bo"}},
	}
	s := Summarize(items, 0, 0)
	want := []string{"Tom", "Ann", "Bo"}
	if len(s.PerPerson) != len(want) {
		t.Fatalf("got %d people, want %d", len(s.PerPerson), len(want))
	}
	for i, p := range s.PerPerson {
		if p.Name != want[i] {
			t.Errorf("PerPerson[%d] = %s, want %s", i, p.Name, want[i])
		}
	}
}
