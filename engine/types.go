package engine

// CellStatus is the tri-state knowledge about one player/card pair.
// Unknown is the only status a cell may transition from; Had and NotHad
// are terminal.
type CellStatus uint8

const (
	Unknown CellStatus = iota
	Had
	NotHad
)

func (s CellStatus) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Had:
		return "had"
	case NotHad:
		return "not-had"
	}
	return "invalid"
}

// NoPlayer marks the absence of a player in int8 fields (shower, owner).
const NoPlayer int8 = -1

// Player describes one seat at the table. Suspect is the suspect card
// index the player embodies; it must be unique across the game.
type Player struct {
	Name      string
	Suspect   uint8
	HandSize  uint8
	Detective bool
}

// Guess is one suggestion: a suspect/weapon/room triple by Guesser,
// optionally disproved by Shower revealing Shown. Shower == NoPlayer means
// nobody could disprove it. ResolvedAt records the turn on which the
// guess's informational content was fully absorbed; it is derived state
// and is recomputed on replay (UnresolvedTurn while unresolved).
type Guess struct {
	Suspect uint8
	Weapon  uint8
	Room    uint8

	Guesser    uint8
	Shower     int8
	Shown      Card // EmptyCard when the revealed card was not observed
	ResolvedAt int16
}

// UnresolvedTurn is the ResolvedAt value of a guess not yet absorbed.
const UnresolvedTurn int16 = -1

// Cards returns the three guessed cards.
func (g Guess) Cards() [3]Card {
	return [3]Card{
		NewCard(CategorySuspect, g.Suspect),
		NewCard(CategoryWeapon, g.Weapon),
		NewCard(CategoryRoom, g.Room),
	}
}

// Resolved reports whether the guess has been fully absorbed.
func (g Guess) Resolved() bool { return g.ResolvedAt >= 0 }

// Turn is one round of play. Turn 0 is synthetic: it records the
// detective's hand seeding and has no guess. A pass has HasGuess false.
// Sheet is the snapshot as of turn completion, kept for time-travel
// display; it is never mutated after the turn is appended.
type Turn struct {
	Number   int
	Actor    uint8
	Guess    Guess
	HasGuess bool
	Sheet    Sheet
}

// Verdict holds, per category, the card index that no player holds, or
// NoCard when not yet deducible. Categories are deduced independently.
type Verdict struct {
	Suspect int8
	Weapon  int8
	Room    int8
}

// NoCard marks an undeduced category in a Verdict.
const NoCard int8 = -1

// Complete reports whether all three categories are deduced.
func (v Verdict) Complete() bool {
	return v.Suspect >= 0 && v.Weapon >= 0 && v.Room >= 0
}

// For returns the verdict index for one category.
func (v Verdict) For(cat Category) int8 {
	switch cat {
	case CategorySuspect:
		return v.Suspect
	case CategoryWeapon:
		return v.Weapon
	case CategoryRoom:
		return v.Room
	}
	return NoCard
}
