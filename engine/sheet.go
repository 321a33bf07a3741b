package engine

import "fmt"

// Sheet is the knowledge matrix: one tri-state cell per card × player,
// stored in a flat slice indexed by card ordinal and player index.
// The sheet enforces only local per-cell invariants:
//
//	I1: at most one player is Had for any card
//	I2: a player's Had cells never exceed their hand size
//	I3: a terminal cell (Had or NotHad) never flips to the other status
//
// Cascading consequences of a mark belong to Game, not the sheet.
type Sheet struct {
	catalog    Catalog
	numPlayers uint8
	handSizes  []uint8
	cells      []CellStatus
	rev        uint64 // bumped on every actual cell write
}

// NewSheet builds an all-Unknown sheet for the given catalog and players.
func NewSheet(catalog Catalog, players []Player) Sheet {
	handSizes := make([]uint8, len(players))
	for i, p := range players {
		handSizes[i] = p.HandSize
	}
	return Sheet{
		catalog:    catalog,
		numPlayers: uint8(len(players)),
		handSizes:  handSizes,
		cells:      make([]CellStatus, catalog.TotalCards()*len(players)),
	}
}

// Clone returns an independent copy. Cheap and explicit: the cell slice
// is the only shared storage, so snapshot/rollback is a slice copy.
func (s Sheet) Clone() Sheet {
	c := s
	c.cells = make([]CellStatus, len(s.cells))
	copy(c.cells, s.cells)
	c.handSizes = make([]uint8, len(s.handSizes))
	copy(c.handSizes, s.handSizes)
	return c
}

// Equal reports cell-for-cell equality with another sheet.
func (s Sheet) Equal(o Sheet) bool {
	if len(s.cells) != len(o.cells) {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Revision returns the write counter, used to detect fixed-point convergence.
func (s Sheet) Revision() uint64 { return s.rev }

// NumPlayers returns the number of players covered by the sheet.
func (s Sheet) NumPlayers() uint8 { return s.numPlayers }

// Catalog returns the card universe the sheet is indexed by.
func (s Sheet) Catalog() Catalog { return s.catalog }

func (s Sheet) idx(player uint8, card Card) int {
	return s.catalog.Ordinal(card)*int(s.numPlayers) + int(player)
}

func (s Sheet) check(player uint8, card Card) error {
	if player >= s.numPlayers {
		return fmt.Errorf("%w: index %d of %d", ErrUnknownPlayer, player, s.numPlayers)
	}
	if !s.catalog.Contains(card) {
		return fmt.Errorf("%w: %s", ErrUnknownCard, card)
	}
	return nil
}

// StatusOf returns the cell status for a player/card pair.
func (s Sheet) StatusOf(player uint8, card Card) (CellStatus, error) {
	if err := s.check(player, card); err != nil {
		return Unknown, err
	}
	return s.cells[s.idx(player, card)], nil
}

// MarkHad sets the cell to Had. Idempotent if already Had. Fails with
// ErrConflictingStatus on a NotHad cell, and with ErrHandFull if the
// player's known Had cards already fill their hand.
func (s *Sheet) MarkHad(player uint8, card Card) error {
	if err := s.check(player, card); err != nil {
		return err
	}
	switch s.cells[s.idx(player, card)] {
	case Had:
		return nil
	case NotHad:
		return fmt.Errorf("%w: %s is not-had for player %d", ErrConflictingStatus, card, player)
	}
	if s.CountFor(player, Had) >= int(s.handSizes[player]) {
		return fmt.Errorf("%w: player %d holds %d cards", ErrHandFull, player, s.handSizes[player])
	}
	s.cells[s.idx(player, card)] = Had
	s.rev++
	return nil
}

// MarkNotHad sets the cell to NotHad. Idempotent if already NotHad.
// Fails with ErrConflictingStatus on a Had cell. Fails with
// ErrVerdictReached when every other player is already NotHad for the
// card while the category verdict is a different card: completing the
// column would leave two cards with no holder in one category. The rule
// is deliberately asymmetric with the hand-full rule on MarkHad.
func (s *Sheet) MarkNotHad(player uint8, card Card) error {
	if err := s.check(player, card); err != nil {
		return err
	}
	switch s.cells[s.idx(player, card)] {
	case NotHad:
		return nil
	case Had:
		return fmt.Errorf("%w: %s is had by player %d", ErrConflictingStatus, card, player)
	}
	if s.othersAllNotHad(player, card) {
		if v, ok := s.VerdictFor(card.Category()); ok && v != card.Index() {
			return fmt.Errorf("%w: %s verdict is already %s", ErrVerdictReached,
				card.Category(), NewCard(card.Category(), v))
		}
	}
	s.cells[s.idx(player, card)] = NotHad
	s.rev++
	return nil
}

// othersAllNotHad reports whether every player except the given one is
// NotHad for the card.
func (s Sheet) othersAllNotHad(player uint8, card Card) bool {
	for p := uint8(0); p < s.numPlayers; p++ {
		if p == player {
			continue
		}
		if s.cells[s.idx(p, card)] != NotHad {
			return false
		}
	}
	return true
}

// OwnerOf returns the player known to hold the card, or NoPlayer.
func (s Sheet) OwnerOf(card Card) int8 {
	if !s.catalog.Contains(card) {
		return NoPlayer
	}
	for p := uint8(0); p < s.numPlayers; p++ {
		if s.cells[s.idx(p, card)] == Had {
			return int8(p)
		}
	}
	return NoPlayer
}

// CardsFor returns every card currently in the given status for the player.
func (s Sheet) CardsFor(player uint8, status CellStatus) []Card {
	if player >= s.numPlayers {
		return nil
	}
	var out []Card
	for _, c := range s.catalog.AllCards() {
		if s.cells[s.idx(player, c)] == status {
			out = append(out, c)
		}
	}
	return out
}

// CountFor counts the player's cells in the given status.
func (s Sheet) CountFor(player uint8, status CellStatus) int {
	n := 0
	for o := 0; o < s.catalog.TotalCards(); o++ {
		if s.cells[o*int(s.numPlayers)+int(player)] == status {
			n++
		}
	}
	return n
}

// VerdictFor returns the unique card index in the category for which
// every player is NotHad, if one exists.
func (s Sheet) VerdictFor(cat Category) (uint8, bool) {
	for i := uint8(0); i < s.catalog.Count(cat); i++ {
		card := NewCard(cat, i)
		all := true
		for p := uint8(0); p < s.numPlayers; p++ {
			if s.cells[s.idx(p, card)] != NotHad {
				all = false
				break
			}
		}
		if all {
			return i, true
		}
	}
	return 0, false
}

// Verdict returns the per-category verdicts, each deduced independently.
func (s Sheet) Verdict() Verdict {
	v := Verdict{Suspect: NoCard, Weapon: NoCard, Room: NoCard}
	if i, ok := s.VerdictFor(CategorySuspect); ok {
		v.Suspect = int8(i)
	}
	if i, ok := s.VerdictFor(CategoryWeapon); ok {
		v.Weapon = int8(i)
	}
	if i, ok := s.VerdictFor(CategoryRoom); ok {
		v.Room = int8(i)
	}
	return v
}

// Progress returns the fraction of cells no longer Unknown.
func (s Sheet) Progress() float64 {
	if len(s.cells) == 0 {
		return 0
	}
	known := 0
	for _, c := range s.cells {
		if c != Unknown {
			known++
		}
	}
	return float64(known) / float64(len(s.cells))
}
