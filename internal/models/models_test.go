package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmarlowe/sleuth/engine"
)

func TestGuessEngineRoundTrip(t *testing.T) {
	shower := uint8(2)
	shown := engine.NewCard(engine.CategoryWeapon, 1)
	g := Guess{Suspect: 4, Weapon: 1, Room: 7, Guesser: 0, Shower: &shower, Shown: &shown}

	eg := g.Engine()
	assert.Equal(t, int8(2), eg.Shower)
	assert.Equal(t, shown, eg.Shown)
	assert.Equal(t, engine.UnresolvedTurn, eg.ResolvedAt)

	back := GuessFromEngine(eg)
	assert.Equal(t, g, back)
}

func TestGuessNobodyShowed(t *testing.T) {
	g := Guess{Suspect: 1, Weapon: 2, Room: 3, Guesser: 1}

	eg := g.Engine()
	assert.Equal(t, engine.NoPlayer, eg.Shower)
	assert.Equal(t, engine.EmptyCard, eg.Shown)

	// Absent fields stay absent on the wire.
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "shower")
	assert.NotContains(t, string(data), "shown")
}

func TestTurnFromEngineDropsDerivedState(t *testing.T) {
	et := engine.Turn{
		Number:   3,
		Actor:    1,
		HasGuess: true,
		Guess: engine.Guess{
			Suspect: 0, Weapon: 2, Room: 5, Guesser: 1,
			Shower: 2, Shown: engine.EmptyCard, ResolvedAt: 4,
		},
	}
	wt := TurnFromEngine(et)
	require.NotNil(t, wt.Guess)
	assert.Nil(t, wt.Guess.Shown)

	// Replay starts from scratch: the annotation is reset.
	assert.Equal(t, engine.UnresolvedTurn, wt.Engine().Guess.ResolvedAt)
}

func TestTurnPass(t *testing.T) {
	wt := Turn{Number: 2, Actor: 0}
	et := wt.Engine()
	assert.False(t, et.HasGuess)
	assert.Equal(t, wt, TurnFromEngine(et))
}

func TestGameRecordCatalog(t *testing.T) {
	rec := GameRecord{Suspects: 6, Weapons: 6, Rooms: 9}
	assert.Equal(t, 21, rec.Catalog().TotalCards())
}
