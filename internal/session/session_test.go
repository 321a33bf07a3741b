package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmarlowe/sleuth/engine"
	"github.com/pmarlowe/sleuth/internal/cache"
	"github.com/pmarlowe/sleuth/internal/models"
	"github.com/pmarlowe/sleuth/internal/store/sqlite"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func testPlayers() []models.Player {
	return []models.Player{
		{ID: uuid.New(), Name: "You", Suspect: 0, HandSize: 6, Detective: true},
		{ID: uuid.New(), Name: "Ash", Suspect: 1, HandSize: 6},
		{ID: uuid.New(), Name: "Morgan", Suspect: 2, HandSize: 6},
	}
}

func testHand() []engine.Card {
	return []engine.Card{
		engine.NewCard(engine.CategoryRoom, 0),
		engine.NewCard(engine.CategoryRoom, 1),
		engine.NewCard(engine.CategoryRoom, 2),
		engine.NewCard(engine.CategoryWeapon, 0),
		engine.NewCard(engine.CategoryWeapon, 1),
		engine.NewCard(engine.CategorySuspect, 4),
	}
}

func memoryManager() *Manager {
	return NewManager(nil, nil, quietLogger())
}

func TestCreateAndApplyGuess(t *testing.T) {
	m := memoryManager()
	ctx := context.Background()

	s, err := m.Create(ctx, "test game", engine.DefaultCatalog(), testPlayers(), testHand())
	require.NoError(t, err)

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	// Detective asks about their own cards plus the rope; nobody shows,
	// so the rope is the weapon.
	turn, err := s.ApplyGuess(ctx, models.Guess{Suspect: 4, Weapon: 2, Room: 0, Guesser: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, turn.Number)
	require.NotNil(t, turn.Guess)
	assert.Nil(t, turn.Guess.Shower)

	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	assert.Equal(t, []EventType{EventTurnApplied, EventSheetUpdate, EventVerdictFound}, types)

	verdict := s.VerdictView()
	require.NotNil(t, verdict.Weapon)
	assert.Equal(t, uint8(2), *verdict.Weapon)
	assert.False(t, verdict.Complete)
}

func TestApplyGuessRejected(t *testing.T) {
	m := memoryManager()
	ctx := context.Background()
	s, err := m.Create(ctx, "test game", engine.DefaultCatalog(), testPlayers(), testHand())
	require.NoError(t, err)

	var events []Event
	defer s.Subscribe(func(ev Event) { events = append(events, ev) })()

	shower := uint8(1)
	// The detective holds all three guessed cards; Ash cannot show one.
	_, err = s.ApplyGuess(ctx, models.Guess{Suspect: 4, Weapon: 0, Room: 0, Guesser: 2, Shower: &shower})
	assert.ErrorIs(t, err, engine.ErrImpossibleShow)
	assert.Empty(t, events, "rejected guess must not broadcast")
	assert.Empty(t, s.History())
}

func TestEnterPassAndHistory(t *testing.T) {
	m := memoryManager()
	ctx := context.Background()
	s, err := m.Create(ctx, "test game", engine.DefaultCatalog(), testPlayers(), testHand())
	require.NoError(t, err)

	_, err = s.ApplyGuess(ctx, models.Guess{Suspect: 0, Weapon: 2, Room: 3, Guesser: 1})
	require.NoError(t, err)
	turn, err := s.EnterPass(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, turn.Number)
	assert.Nil(t, turn.Guess)

	hist := s.History()
	require.Len(t, hist, 2)
	assert.NotNil(t, hist[0].Guess)
	assert.Nil(t, hist[1].Guess)
}

func TestReplaceGuess(t *testing.T) {
	m := memoryManager()
	ctx := context.Background()
	s, err := m.Create(ctx, "test game", engine.DefaultCatalog(), testPlayers(), testHand())
	require.NoError(t, err)

	shower := uint8(2)
	_, err = s.ApplyGuess(ctx, models.Guess{Suspect: 1, Weapon: 3, Room: 3, Guesser: 1, Shower: &shower})
	require.NoError(t, err)

	var events []Event
	defer s.Subscribe(func(ev Event) { events = append(events, ev) })()

	// Correction: nobody showed on that guess after all.
	err = s.ReplaceGuess(ctx, 1, models.Guess{Suspect: 1, Weapon: 3, Room: 3, Guesser: 1})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, EventTurnReplaced, events[0].Type)
	hist := s.History()
	require.Len(t, hist, 1)
	assert.Nil(t, hist[0].Guess.Shower)
}

func TestPlayerSeat(t *testing.T) {
	m := memoryManager()
	players := testPlayers()
	s, err := m.Create(context.Background(), "test game", engine.DefaultCatalog(), players, testHand())
	require.NoError(t, err)

	seat, ok := s.PlayerSeat(players[2].ID)
	require.True(t, ok)
	assert.Equal(t, uint8(2), seat)

	_, ok = s.PlayerSeat(uuid.New())
	assert.False(t, ok)
}

func TestLoadReplaysPersistedGame(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	m := NewManager(store, nil, quietLogger())
	s, err := m.Create(ctx, "persisted game", engine.DefaultCatalog(), testPlayers(), testHand())
	require.NoError(t, err)

	shower := uint8(2)
	_, err = s.ApplyGuess(ctx, models.Guess{Suspect: 0, Weapon: 2, Room: 3, Guesser: 1, Shower: &shower})
	require.NoError(t, err)
	_, err = s.ApplyGuess(ctx, models.Guess{Suspect: 4, Weapon: 2, Room: 5, Guesser: 0})
	require.NoError(t, err)
	_, err = s.EnterPass(ctx, 2)
	require.NoError(t, err)

	// A fresh manager over the same store must reconstruct the exact
	// same deductions by replay.
	m2 := NewManager(store, nil, quietLogger())
	restored, err := m2.Load(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, s.SheetView(), restored.SheetView())
	assert.Equal(t, s.VerdictView(), restored.VerdictView())
	assert.Equal(t, s.History(), restored.History())
}

func TestLoadUnknownGame(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(store, nil, quietLogger())
	_, err = m.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestHistorianAudit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	historian := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = historian.Close() })

	ctx := context.Background()
	m := NewManager(nil, historian, quietLogger())
	s, err := m.Create(ctx, "audited game", engine.DefaultCatalog(), testPlayers(), testHand())
	require.NoError(t, err)
	_, err = s.ApplyGuess(ctx, models.Guess{Suspect: 0, Weapon: 2, Room: 3, Guesser: 1})
	require.NoError(t, err)

	// Publishing is fire-and-forget; poll for both records.
	deadline := time.Now().Add(2 * time.Second)
	for {
		recs, err := historian.Turns(ctx)
		require.NoError(t, err)
		if len(recs) >= 2 {
			kinds := map[string]bool{}
			for _, rec := range recs {
				assert.Equal(t, s.ID, rec.GameID)
				kinds[rec.Kind] = true
			}
			assert.True(t, kinds["create"])
			assert.True(t, kinds["guess"])
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 audit records, got %d", len(recs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
