package engine

import "testing"

// TestCardPacking verifies category/index round-trip through the packed byte.
func TestCardPacking(t *testing.T) {
	cases := []struct {
		cat   Category
		index uint8
	}{
		{CategorySuspect, 0},
		{CategorySuspect, 5},
		{CategoryWeapon, 3},
		{CategoryRoom, 8},
	}
	for _, tc := range cases {
		c := NewCard(tc.cat, tc.index)
		if c.Category() != tc.cat {
			t.Errorf("NewCard(%v, %d).Category() = %v, want %v", tc.cat, tc.index, c.Category(), tc.cat)
		}
		if c.Index() != tc.index {
			t.Errorf("NewCard(%v, %d).Index() = %d, want %d", tc.cat, tc.index, c.Index(), tc.index)
		}
	}
}

// TestCatalogOrdinalRoundTrip verifies Ordinal and CardAt are inverses
// over the whole default catalog.
func TestCatalogOrdinalRoundTrip(t *testing.T) {
	ct := DefaultCatalog()
	if ct.TotalCards() != 21 {
		t.Fatalf("TotalCards() = %d, want 21", ct.TotalCards())
	}

	seen := make(map[int]bool)
	for _, c := range ct.AllCards() {
		o := ct.Ordinal(c)
		if o < 0 || o >= ct.TotalCards() {
			t.Fatalf("Ordinal(%s) = %d out of range", c, o)
		}
		if seen[o] {
			t.Fatalf("duplicate ordinal %d for %s", o, c)
		}
		seen[o] = true
		if back := ct.CardAt(o); back != c {
			t.Errorf("CardAt(Ordinal(%s)) = %s", c, back)
		}
	}
}

// TestCatalogContains verifies membership checks against category counts.
func TestCatalogContains(t *testing.T) {
	ct := DefaultCatalog()

	if !ct.Contains(NewCard(CategoryRoom, 8)) {
		t.Error("room 8 should be in the default catalog")
	}
	if ct.Contains(NewCard(CategoryWeapon, 6)) {
		t.Error("weapon 6 should not be in the default catalog")
	}
	if ct.Contains(EmptyCard) {
		t.Error("EmptyCard should never be contained")
	}
}

// TestCatalogCustomCounts verifies a non-default rule set keeps ordinals dense.
func TestCatalogCustomCounts(t *testing.T) {
	ct := NewCatalog(4, 5, 7)
	if ct.TotalCards() != 16 {
		t.Fatalf("TotalCards() = %d, want 16", ct.TotalCards())
	}
	if got := ct.Ordinal(NewCard(CategoryRoom, 0)); got != 9 {
		t.Errorf("first room ordinal = %d, want 9", got)
	}
	if got := len(ct.Cards(CategoryWeapon)); got != 5 {
		t.Errorf("len(Cards(weapon)) = %d, want 5", got)
	}
}
