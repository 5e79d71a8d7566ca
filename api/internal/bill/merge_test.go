package bill

import (
	"reflect"
	"testing"
)

func TestApply(t *testing.T) {
	base := func() []Item {
		return []Item{
			{ID: "1", Name: "Burger", Price: 10, Quantity: 1},
			{ID: "2", Name: "Soda", Price: 2, Quantity: 2, AssignedTo: []string{"Mike"}},
			{ID: "3", Name: "Fries", Price: 4, Quantity: 1},
		}
	}

	tests := []struct {
		name     string
		mods     []Modification
		validate func(t *testing.T, got []Item)
	}{
		{
			name: "replace is wholesale, not a union",
			mods: []Modification{
				{ItemID: "2", Assignees: []string{"Sarah"}},
			},
			validate: func(t *testing.T, got []Item) {
				if !reflect.DeepEqual(got[1].AssignedTo, []string{"Sarah"}) {
					t.Errorf("item 2 assignees = %v, want [Sarah]", got[1].AssignedTo)
				}
			},
		},
		{
			name: "untouched items pass through with fields intact",
			mods: []Modification{
				{ItemID: "1", Assignees: []string{"Tom"}},
			},
			validate: func(t *testing.T, got []Item) {
				if got[2].Name != "Fries" || got[2].Price != 4 || got[2].Quantity != 1 {
					t.Errorf("item 3 fields changed: %+v", got[2])
				}
				if !reflect.DeepEqual(got[1].AssignedTo, []string{"Mike"}) {
					t.Errorf("item 2 assignees = %v, want [Mike]", got[1].AssignedTo)
				}
			},
		},
		{
			name: "unknown item id is a silent no-op",
			mods: []Modification{
				{ItemID: "nope", Assignees: []string{"Tom"}},
			},
			validate: func(t *testing.T, got []Item) {
				if !reflect.DeepEqual(got, base()) {
					t.Errorf("collection changed: %+v", got)
				}
			},
		},
		{
			name: "last write wins within one batch",
			mods: []Modification{
				{ItemID: "1", Assignees: []string{"Tom"}},
				{ItemID: "1", Assignees: []string{"Sarah", "Mike"}},
			},
			validate: func(t *testing.T, got []Item) {
				if !reflect.DeepEqual(got[0].AssignedTo, []string{"Sarah", "Mike"}) {
					t.Errorf("item 1 assignees = %v, want [Sarah Mike]", got[0].AssignedTo)
				}
			},
		},
		{
			name: "empty assignees clears the item",
			mods: []Modification{
				{ItemID: "2", Assignees: []string{}},
			},
			validate: func(t *testing.T, got []Item) {
				if len(got[1].AssignedTo) != 0 {
					t.Errorf("item 2 assignees = %v, want empty", got[1].AssignedTo)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			got := Apply(in, tt.mods)
			tt.validate(t, got)
			if !reflect.DeepEqual(in, base()) {
				t.Errorf("input slice was mutated: %+v", in)
			}
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	items := []Item{{ID: "1", Name: "Burger", Price: 10}}
	mods := []Modification{{ItemID: "1", Assignees: []string{"Tom", "Jerry"}}}

	once := Apply(items, mods)
	twice := Apply(once, mods)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("applying twice differs from once: %+v vs %+v", once, twice)
	}
}

func TestApplyDoesNotAliasModification(t *testing.T) {
	items := []Item{{ID: "1", Name: "Burger", Price: 10}}
	assignees := []string{"Tom"}
	got := Apply(items, []Modification{{ItemID: "1", Assignees: assignees}})

	assignees[0] = "changed"
	if got[0].AssignedTo[0] != "Tom" {
		t.Errorf("result aliases the modification's slice")
	}
}
