package engine

import "fmt"

// ApplyGuess validates and absorbs one guess, then propagates the sheet
// to a fixed point. Application is all-or-nothing: on any error the
// sheet and turn history are restored to their pre-call state.
func (g *Game) ApplyGuess(gu Guess) error {
	if err := g.validateGuess(gu); err != nil {
		return err
	}
	gu.ResolvedAt = UnresolvedTurn // derived, always recomputed

	savedSheet := g.sheet.Clone()
	savedTurns := make([]Turn, len(g.turns))
	copy(savedTurns, g.turns)

	number := len(g.turns)
	g.turns = append(g.turns, Turn{Number: number, Actor: gu.Guesser, Guess: gu, HasGuess: true})

	if err := g.absorbGuess(number); err != nil {
		g.sheet = savedSheet
		g.turns = savedTurns
		return err
	}

	g.turns[number].Sheet = g.sheet.Clone()
	return nil
}

// EnterPass appends a resolved turn with no guess. The sheet is not
// mutated; the turn carries a snapshot for history display only.
func (g *Game) EnterPass(player uint8) error {
	if player >= g.ring.Len() {
		return fmt.Errorf("%w: index %d of %d", ErrUnknownPlayer, player, g.ring.Len())
	}
	g.turns = append(g.turns, Turn{
		Number: len(g.turns),
		Actor:  player,
		Sheet:  g.sheet.Clone(),
	})
	return nil
}

// ReplaceGuess swaps the guess recorded at an earlier turn and replays
// the whole history from a fresh seed on a scratch game. Resolution
// annotations are recomputed from scratch. On any replay failure the
// live game is left untouched.
func (g *Game) ReplaceGuess(turnNumber int, gu Guess) error {
	if turnNumber <= 0 || turnNumber >= len(g.turns) {
		return fmt.Errorf("%w: %d", ErrUnknownTurn, turnNumber)
	}
	if !g.turns[turnNumber].HasGuess {
		return fmt.Errorf("%w: turn %d", ErrNoGuess, turnNumber)
	}

	scratch, err := NewGame(g.catalog, g.players, g.hand)
	if err != nil {
		return err
	}
	for i := 1; i < len(g.turns); i++ {
		t := g.turns[i]
		if !t.HasGuess {
			if err := scratch.EnterPass(t.Actor); err != nil {
				return err
			}
			continue
		}
		src := t.Guess
		if i == turnNumber {
			src = gu
		}
		if err := scratch.ApplyGuess(src); err != nil {
			return fmt.Errorf("replay turn %d: %w", i, err)
		}
	}

	g.sheet = scratch.sheet
	g.turns = scratch.turns
	return nil
}

// Rebuild reconstructs a live game from persisted setup and an ordered
// list of play turns (turn 0 is re-seeded, not supplied). Guess
// resolution annotations in the input are ignored and recomputed, so a
// rebuilt game is deterministic regardless of what was persisted.
func Rebuild(catalog Catalog, players []Player, hand []Card, turns []Turn) (*Game, error) {
	g, err := NewGame(catalog, players, hand)
	if err != nil {
		return nil, err
	}
	for _, t := range turns {
		if !t.HasGuess {
			if err := g.EnterPass(t.Actor); err != nil {
				return nil, err
			}
			continue
		}
		if err := g.ApplyGuess(t.Guess); err != nil {
			return nil, fmt.Errorf("replay turn %d: %w", t.Number, err)
		}
	}
	return g, nil
}

func (g *Game) validateGuess(gu Guess) error {
	if gu.Suspect >= g.catalog.Count(CategorySuspect) ||
		gu.Weapon >= g.catalog.Count(CategoryWeapon) ||
		gu.Room >= g.catalog.Count(CategoryRoom) {
		return fmt.Errorf("%w: guess %d/%d/%d", ErrUnknownCard, gu.Suspect, gu.Weapon, gu.Room)
	}
	if gu.Guesser >= g.ring.Len() {
		return fmt.Errorf("%w: guesser %d", ErrUnknownPlayer, gu.Guesser)
	}
	if gu.Shower < 0 {
		if gu.Shown != EmptyCard {
			return fmt.Errorf("%w: revealed card without a shower", ErrShownNotGuessed)
		}
		return nil
	}
	shower := uint8(gu.Shower)
	if shower >= g.ring.Len() {
		return fmt.Errorf("%w: shower %d", ErrUnknownPlayer, gu.Shower)
	}

	// A named shower must plausibly hold at least one guessed card.
	possible := false
	for _, c := range gu.Cards() {
		st, err := g.sheet.StatusOf(shower, c)
		if err != nil {
			return err
		}
		if st != NotHad {
			possible = true
			break
		}
	}
	if !possible {
		who := g.players[shower].Name
		if shower == g.detective {
			who = "you"
		}
		return fmt.Errorf("%w: %s", ErrImpossibleShow, who)
	}

	if gu.Shown != EmptyCard {
		cards := gu.Cards()
		if gu.Shown != cards[0] && gu.Shown != cards[1] && gu.Shown != cards[2] {
			return fmt.Errorf("%w: %s", ErrShownNotGuessed, gu.Shown)
		}
	}
	return nil
}

// absorbGuess extracts the turn's direct information: everyone seated
// between the guesser and the resolving player passed on all three
// cards, and a revealed card pins down the shower.
func (g *Game) absorbGuess(number int) error {
	gu := &g.turns[number].Guess

	resolver := gu.Guesser
	if gu.Shower >= 0 {
		resolver = uint8(gu.Shower)
	}
	for _, p := range g.ring.Between(gu.Guesser, resolver) {
		for _, c := range gu.Cards() {
			if err := g.markNotHadByPlayer(p, c); err != nil {
				return err
			}
		}
	}

	switch {
	case gu.Shower < 0:
		// Nobody disproved: the three-card question never arises.
		gu.ResolvedAt = int16(number)
	case gu.Shown != EmptyCard:
		if err := g.markHadByPlayer(uint8(gu.Shower), gu.Shown); err != nil {
			return err
		}
		gu.ResolvedAt = int16(number)
	}

	return g.solve()
}

// ---------------------------------------------------------------------------
// Fixed-point replay
// ---------------------------------------------------------------------------

// solve repeats the propagation rules until a full pass changes neither
// the sheet nor the set of unresolved turns. Cells only move Unknown →
// {Had, NotHad} and turns only move unresolved → resolved, a monotone
// fixed point over a finite lattice, so the loop terminates.
func (g *Game) solve() error {
	for {
		before := g.sheet.Revision()
		resolved, err := g.resolveTurns()
		if err != nil {
			return err
		}
		if err := g.inferVerdicts(); err != nil {
			return err
		}
		if err := g.inferLastHolders(); err != nil {
			return err
		}
		if g.sheet.Revision() == before && !resolved {
			return nil
		}
	}
}

// resolveTurns attempts to resolve every turn whose shower is still
// ambiguous. Returns whether any turn became resolved.
func (g *Game) resolveTurns() (bool, error) {
	last := int16(len(g.turns) - 1)
	changed := false
	for i := range g.turns {
		t := &g.turns[i]
		if !t.HasGuess || t.Guess.Resolved() {
			continue
		}
		gu := &t.Guess
		shower := uint8(gu.Shower) // unresolved turns always name a shower

		anyHad := false
		ownedElsewhere := 0
		var sole Card = EmptyCard
		unknown := 0
		for _, c := range gu.Cards() {
			st, err := g.sheet.StatusOf(shower, c)
			if err != nil {
				return false, err
			}
			if st == Had {
				anyHad = true
			}
			if st == Unknown {
				unknown++
				sole = c
			}
			if o := g.sheet.OwnerOf(c); o != NoPlayer && o != int8(shower) {
				ownedElsewhere++
			}
		}

		switch {
		case anyHad:
			// Ambiguous which card was shown, but the turn carries no
			// further information either way.
			gu.ResolvedAt = last
			changed = true
		case unknown == 1:
			// The other two are ruled out; the shown card is forced.
			if err := g.markHadByPlayer(shower, sole); err != nil {
				return false, err
			}
			gu.ResolvedAt = last
			changed = true
		case ownedElsewhere == 3:
			return false, fmt.Errorf("%w: turn %d: every guessed card is held by someone other than the shower",
				ErrInvalidHistory, t.Number)
		}
	}
	return changed, nil
}

// inferVerdicts applies the counting rule per category: when all but one
// card has an identified owner, the leftover card is the verdict and no
// player holds it.
func (g *Game) inferVerdicts() error {
	for cat := Category(0); cat < NumCategories; cat++ {
		owned := 0
		rem := EmptyCard
		n := g.catalog.Count(cat)
		for i := uint8(0); i < n; i++ {
			c := NewCard(cat, i)
			if g.sheet.OwnerOf(c) != NoPlayer {
				owned++
			} else {
				rem = c
			}
		}
		if owned != int(n)-1 || rem == EmptyCard {
			continue
		}
		for p := uint8(0); p < g.ring.Len(); p++ {
			if err := g.markNotHadByPlayer(p, rem); err != nil {
				return err
			}
		}
	}
	return nil
}

// inferLastHolders applies the elimination rule per category with a
// known verdict: a non-verdict card must sit in some hand, so a single
// remaining Unknown cell for it forces Had.
func (g *Game) inferLastHolders() error {
	for cat := Category(0); cat < NumCategories; cat++ {
		v, ok := g.sheet.VerdictFor(cat)
		if !ok {
			continue
		}
		for i := uint8(0); i < g.catalog.Count(cat); i++ {
			if i == v {
				continue
			}
			c := NewCard(cat, i)
			holder := NoPlayer
			unknown := 0
			anyHad := false
			for p := uint8(0); p < g.ring.Len(); p++ {
				st, err := g.sheet.StatusOf(p, c)
				if err != nil {
					return err
				}
				switch st {
				case Had:
					anyHad = true
				case Unknown:
					unknown++
					holder = int8(p)
				}
			}
			if anyHad || unknown != 1 {
				continue
			}
			if err := g.markHadByPlayer(uint8(holder), c); err != nil {
				return err
			}
		}
	}
	return nil
}
