// Package engine implements the deduction core of a Clue-style detective
// notebook: a tri-state knowledge sheet over cards and players, and the
// constraint propagation that turns a stream of guesses, shows and passes
// into hard facts about who holds what and which cards form the solution.
//
// The package is pure and single-threaded. Every public operation runs to
// completion before returning; a Game instance is exclusively owned by one
// caller session.
package engine

import "fmt"

// Game owns a knowledge sheet, the turn history and the seating ring for
// one game. The caller constructs it with the players and the detective's
// known hand, then feeds guesses and passes; after each the sheet is
// propagated to a fixed point.
type Game struct {
	catalog   Catalog
	players   []Player
	ring      Ring
	detective uint8
	hand      []Card

	sheet Sheet
	turns []Turn
}

// NewGame validates the setup, seeds the sheet from the detective's hand
// and records the synthetic turn 0. The seeding runs through the cascade
// markers, so first-order deductions about the other players (nobody else
// holds the detective's cards) are already present afterwards.
func NewGame(catalog Catalog, players []Player, hand []Card) (*Game, error) {
	if len(players) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPlayers, len(players))
	}
	detective := -1
	seen := make(map[uint8]bool, len(players))
	for i, p := range players {
		if p.Suspect >= catalog.Count(CategorySuspect) {
			return nil, fmt.Errorf("%w: suspect %d", ErrUnknownCard, p.Suspect)
		}
		if seen[p.Suspect] {
			return nil, fmt.Errorf("%w: suspect %d", ErrDuplicateSuspect, p.Suspect)
		}
		seen[p.Suspect] = true
		if p.Detective {
			if detective >= 0 {
				return nil, fmt.Errorf("%w: players %d and %d", ErrNoDetective, detective, i)
			}
			detective = i
		}
	}
	if detective < 0 {
		return nil, ErrNoDetective
	}
	if len(hand) != int(players[detective].HandSize) {
		return nil, fmt.Errorf("%w: got %d cards, hand size is %d",
			ErrHandSize, len(hand), players[detective].HandSize)
	}
	held := make(map[Card]bool, len(hand))
	for _, c := range hand {
		if !catalog.Contains(c) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCard, c)
		}
		if held[c] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		held[c] = true
	}

	g := &Game{
		catalog:   catalog,
		players:   append([]Player(nil), players...),
		ring:      NewRing(uint8(len(players))),
		detective: uint8(detective),
		hand:      append([]Card(nil), hand...),
		sheet:     NewSheet(catalog, players),
	}

	for _, c := range hand {
		if err := g.markHadByPlayer(g.detective, c); err != nil {
			return nil, err
		}
	}
	for _, c := range catalog.AllCards() {
		if held[c] {
			continue
		}
		if err := g.markNotHadByPlayer(g.detective, c); err != nil {
			return nil, err
		}
	}

	g.turns = append(g.turns, Turn{Number: 0, Actor: g.detective, Sheet: g.sheet.Clone()})
	return g, nil
}

// ---------------------------------------------------------------------------
// Cascade markers
// ---------------------------------------------------------------------------

// markOp is one pending sheet write on the propagation worklist.
type markOp struct {
	player uint8
	card   Card
	status CellStatus
}

// markHadByPlayer marks a card Had and propagates every consequence:
// all other players become NotHad for the card, and a newly full hand
// marks the player NotHad for everything else.
func (g *Game) markHadByPlayer(player uint8, card Card) error {
	return g.propagate(markOp{player, card, Had})
}

// markNotHadByPlayer marks a card NotHad and propagates: once a player's
// NotHad count reaches total minus hand size, every remaining card of
// theirs must be Had.
func (g *Game) markNotHadByPlayer(player uint8, card Card) error {
	return g.propagate(markOp{player, card, NotHad})
}

// propagate drains a shared worklist instead of mutually recursing, so
// cascade depth stays bounded regardless of traversal order. Each op only
// fires follow-ups when a cell actually transitions out of Unknown, and
// Unknown cells strictly decrease, so the loop terminates.
func (g *Game) propagate(op markOp) error {
	queue := []markOp{op}
	for len(queue) > 0 {
		op, queue = queue[0], queue[1:]

		cur, err := g.sheet.StatusOf(op.player, op.card)
		if err != nil {
			return err
		}
		if cur == op.status {
			continue
		}

		switch op.status {
		case Had:
			if err := g.sheet.MarkHad(op.player, op.card); err != nil {
				return err
			}
			for p := uint8(0); p < g.ring.Len(); p++ {
				if p != op.player {
					queue = append(queue, markOp{p, op.card, NotHad})
				}
			}
			if g.sheet.CountFor(op.player, Had) == int(g.players[op.player].HandSize) {
				for _, c := range g.sheet.CardsFor(op.player, Unknown) {
					queue = append(queue, markOp{op.player, c, NotHad})
				}
			}

		case NotHad:
			if err := g.sheet.MarkNotHad(op.player, op.card); err != nil {
				return err
			}
			outside := g.catalog.TotalCards() - int(g.players[op.player].HandSize)
			if g.sheet.CountFor(op.player, NotHad) == outside {
				for _, c := range g.sheet.CardsFor(op.player, Unknown) {
					queue = append(queue, markOp{op.player, c, Had})
				}
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Catalog returns the card universe.
func (g *Game) Catalog() Catalog { return g.catalog }

// Players returns the seating order.
func (g *Game) Players() []Player { return append([]Player(nil), g.players...) }

// Detective returns the index of the player whose hand is known.
func (g *Game) Detective() uint8 { return g.detective }

// Hand returns the detective's original hand, as seeded at turn 0.
func (g *Game) Hand() []Card { return append([]Card(nil), g.hand...) }

// NextPlayer returns the player after p in seating order.
func (g *Game) NextPlayer(p uint8) uint8 { return g.ring.Next(p) }

// StatusOf returns the sheet status for one player/card pair.
func (g *Game) StatusOf(player uint8, card Card) (CellStatus, error) {
	return g.sheet.StatusOf(player, card)
}

// OwnerOf returns the player known to hold the card, or NoPlayer.
func (g *Game) OwnerOf(card Card) int8 { return g.sheet.OwnerOf(card) }

// CardsFor returns the player's cards in the given status.
func (g *Game) CardsFor(player uint8, status CellStatus) []Card {
	return g.sheet.CardsFor(player, status)
}

// Verdict returns the per-category deduced solution so far.
func (g *Game) Verdict() Verdict { return g.sheet.Verdict() }

// Progress returns the fraction of sheet cells no longer Unknown.
func (g *Game) Progress() float64 { return g.sheet.Progress() }

// SheetSnapshot returns an independent copy of the live sheet.
func (g *Game) SheetSnapshot() Sheet { return g.sheet.Clone() }

// History returns the full turn list, including per-turn sheet snapshots.
func (g *Game) History() []Turn { return append([]Turn(nil), g.turns...) }

// LastTurn returns the number of the most recent turn.
func (g *Game) LastTurn() int { return len(g.turns) - 1 }
