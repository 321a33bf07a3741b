// Package models defines the wire and persistence records for the sleuth
// service. Engine state never crosses a process boundary directly; these
// records carry the minimal durable form (setup plus ordered turns) and a
// rebuilt game is always reconstructed by deterministic replay.
package models

import (
	"github.com/google/uuid"

	"github.com/pmarlowe/sleuth/engine"
)

// Player is one seat at the table as stored and sent over the wire.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Suspect   uint8     `json:"suspect"`
	HandSize  uint8     `json:"handSize"`
	Detective bool      `json:"detective"`
}

// Guess is the durable form of a guess. Shower and Shown are pointers so
// "nobody showed" and "card not seen" serialize as absent fields rather
// than sentinel numbers. Resolution annotations are derived state and are
// deliberately not part of the record.
type Guess struct {
	Suspect uint8        `json:"suspect"`
	Weapon  uint8        `json:"weapon"`
	Room    uint8        `json:"room"`
	Guesser uint8        `json:"guesser"`
	Shower  *uint8       `json:"shower,omitempty"`
	Shown   *engine.Card `json:"shown,omitempty"`
}

// Turn is one recorded turn. A nil Guess is a pass.
type Turn struct {
	Number int    `json:"number"`
	Actor  uint8  `json:"actor"`
	Guess  *Guess `json:"guess,omitempty"`
}

// GameRecord is the persistence surface for one game: everything needed
// to rebuild the live engine by replay, plus display metadata.
type GameRecord struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Suspects  uint8         `json:"suspects"`
	Weapons   uint8         `json:"weapons"`
	Rooms     uint8         `json:"rooms"`
	Players   []Player      `json:"players"`
	Hand      []engine.Card `json:"hand"`
	CreatedAt int64         `json:"createdAt"` // unix millis, UTC
	UpdatedAt int64         `json:"updatedAt"` // unix millis, UTC
}

// Catalog returns the card universe this record was played under.
func (r GameRecord) Catalog() engine.Catalog {
	return engine.NewCatalog(r.Suspects, r.Weapons, r.Rooms)
}

// EnginePlayers converts the recorded seating order to engine players.
func (r GameRecord) EnginePlayers() []engine.Player {
	out := make([]engine.Player, len(r.Players))
	for i, p := range r.Players {
		out[i] = engine.Player{
			Name:      p.Name,
			Suspect:   p.Suspect,
			HandSize:  p.HandSize,
			Detective: p.Detective,
		}
	}
	return out
}

// Engine converts a wire guess to its engine form. The resolution
// annotation starts unresolved; replay recomputes it.
func (g Guess) Engine() engine.Guess {
	eg := engine.Guess{
		Suspect:    g.Suspect,
		Weapon:     g.Weapon,
		Room:       g.Room,
		Guesser:    g.Guesser,
		Shower:     engine.NoPlayer,
		Shown:      engine.EmptyCard,
		ResolvedAt: engine.UnresolvedTurn,
	}
	if g.Shower != nil {
		eg.Shower = int8(*g.Shower)
	}
	if g.Shown != nil {
		eg.Shown = *g.Shown
	}
	return eg
}

// GuessFromEngine converts an engine guess to its wire form, dropping the
// derived resolution annotation.
func GuessFromEngine(eg engine.Guess) Guess {
	g := Guess{
		Suspect: eg.Suspect,
		Weapon:  eg.Weapon,
		Room:    eg.Room,
		Guesser: eg.Guesser,
	}
	if eg.Shower >= 0 {
		shower := uint8(eg.Shower)
		g.Shower = &shower
	}
	if eg.Shown != engine.EmptyCard {
		shown := eg.Shown
		g.Shown = &shown
	}
	return g
}

// TurnFromEngine converts an engine turn to its wire form. Sheet
// snapshots are derived state and never persisted.
func TurnFromEngine(t engine.Turn) Turn {
	out := Turn{Number: t.Number, Actor: t.Actor}
	if t.HasGuess {
		g := GuessFromEngine(t.Guess)
		out.Guess = &g
	}
	return out
}

// Engine converts a wire turn to its engine form.
func (t Turn) Engine() engine.Turn {
	out := engine.Turn{Number: t.Number, Actor: t.Actor}
	if t.Guess != nil {
		out.Guess = t.Guess.Engine()
		out.HasGuess = true
	}
	return out
}

// EngineTurns converts an ordered wire history for replay.
func EngineTurns(turns []Turn) []engine.Turn {
	out := make([]engine.Turn, len(turns))
	for i, t := range turns {
		out[i] = t.Engine()
	}
	return out
}
