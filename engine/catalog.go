package engine

// Category constants — packed into upper 2 bits of Card.
const (
	CategorySuspect Category = 0
	CategoryWeapon  Category = 1
	CategoryRoom    Category = 2

	NumCategories = 3
)

// Category identifies one of the three card groups.
type Category uint8

func (c Category) String() string {
	switch c {
	case CategorySuspect:
		return "suspect"
	case CategoryWeapon:
		return "weapon"
	case CategoryRoom:
		return "room"
	}
	return "invalid"
}

// Card is a packed uint8: upper 2 bits = category, lower 6 bits = index
// within the category. Identity is plain value equality.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// NewCard constructs a Card from category and index-within-category.
func NewCard(cat Category, index uint8) Card {
	return Card((uint8(cat) << 6) | (index & 0x3F))
}

// Category returns the category bits (upper 2).
func (c Card) Category() Category { return Category(uint8(c) >> 6) }

// Index returns the index-within-category bits (lower 6).
func (c Card) Index() uint8 { return uint8(c) & 0x3F }

func (c Card) String() string {
	if c == EmptyCard {
		return "--"
	}
	switch c.Category() {
	case CategorySuspect:
		return "S" + itoa(c.Index())
	case CategoryWeapon:
		return "W" + itoa(c.Index())
	case CategoryRoom:
		return "R" + itoa(c.Index())
	}
	return "??"
}

// itoa formats a small index without pulling in strconv for two digits.
func itoa(n uint8) string {
	if n < 10 {
		return string([]byte{'0' + n})
	}
	return string([]byte{'0' + n/10, '0' + n%10})
}

// Reference rule set counts: 6 suspects, 6 weapons, 9 rooms.
const (
	DefaultSuspects = 6
	DefaultWeapons  = 6
	DefaultRooms    = 9
)

// Catalog is the fixed universe of cards for one game: a per-category
// count, immutable after construction. All sheet indexing derives from it.
type Catalog struct {
	counts  [NumCategories]uint8
	offsets [NumCategories]int
	total   int
}

// NewCatalog builds a catalog with the given per-category counts.
func NewCatalog(suspects, weapons, rooms uint8) Catalog {
	ct := Catalog{counts: [NumCategories]uint8{suspects, weapons, rooms}}
	off := 0
	for i := 0; i < NumCategories; i++ {
		ct.offsets[i] = off
		off += int(ct.counts[i])
	}
	ct.total = off
	return ct
}

// DefaultCatalog returns the reference rule set catalog (6/6/9).
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultSuspects, DefaultWeapons, DefaultRooms)
}

// TotalCards returns the number of cards across all categories.
func (ct Catalog) TotalCards() int { return ct.total }

// Count returns the number of cards in a category.
func (ct Catalog) Count(cat Category) uint8 {
	if cat >= NumCategories {
		return 0
	}
	return ct.counts[cat]
}

// Contains reports whether the card exists in this catalog.
func (ct Catalog) Contains(c Card) bool {
	return c != EmptyCard && c.Category() < NumCategories && c.Index() < ct.counts[c.Category()]
}

// Ordinal maps a card to its position in [0, TotalCards), suspects first,
// then weapons, then rooms. The sheet uses this for flat cell indexing.
func (ct Catalog) Ordinal(c Card) int {
	return ct.offsets[c.Category()] + int(c.Index())
}

// CardAt is the inverse of Ordinal.
func (ct Catalog) CardAt(ordinal int) Card {
	for cat := NumCategories - 1; cat >= 0; cat-- {
		if ordinal >= ct.offsets[cat] {
			return NewCard(Category(cat), uint8(ordinal-ct.offsets[cat]))
		}
	}
	return EmptyCard
}

// Cards returns all cards of a category in index order.
func (ct Catalog) Cards(cat Category) []Card {
	n := ct.Count(cat)
	out := make([]Card, 0, n)
	for i := uint8(0); i < n; i++ {
		out = append(out, NewCard(cat, i))
	}
	return out
}

// AllCards returns every card in ordinal order.
func (ct Catalog) AllCards() []Card {
	out := make([]Card, 0, ct.total)
	for o := 0; o < ct.total; o++ {
		out = append(out, ct.CardAt(o))
	}
	return out
}
