// Package session owns the live games of the sleuth service. A Session
// wraps one engine game with locking, player identity mapping,
// persistence and event fan-out; a Manager tracks sessions by id and
// restores persisted games by deterministic replay.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pmarlowe/sleuth/engine"
	"github.com/pmarlowe/sleuth/internal/cache"
	"github.com/pmarlowe/sleuth/internal/models"
	"github.com/pmarlowe/sleuth/internal/store/sqlite"
)

// Session is one live game. All public methods lock; the engine game
// underneath is single-threaded and exclusively owned by the session.
type Session struct {
	ID uuid.UUID

	mu   sync.Mutex
	game *engine.Game
	rec  models.GameRecord

	// Player identity mapping: the engine works in seat indices, the
	// service in player UUIDs.
	playerToSeat map[uuid.UUID]uint8
	seatToPlayer []uuid.UUID

	subscribers map[uuid.UUID]func(Event)

	store     *sqlite.Store
	historian *cache.Historian
	log       *logrus.Entry
}

func newSession(rec models.GameRecord, game *engine.Game, store *sqlite.Store, historian *cache.Historian, log *logrus.Logger) *Session {
	s := &Session{
		ID:           rec.ID,
		game:         game,
		rec:          rec,
		playerToSeat: make(map[uuid.UUID]uint8, len(rec.Players)),
		seatToPlayer: make([]uuid.UUID, len(rec.Players)),
		subscribers:  make(map[uuid.UUID]func(Event)),
		store:        store,
		historian:    historian,
		log:          log.WithField("game", rec.ID),
	}
	for i, p := range rec.Players {
		s.playerToSeat[p.ID] = uint8(i)
		s.seatToPlayer[i] = p.ID
	}
	return s
}

// Subscribe registers a callback for every event the session broadcasts.
// The returned function unsubscribes.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// fireEvent delivers an event to every subscriber.
// Assumes lock is held by caller.
func (s *Session) fireEvent(ev Event) {
	ev.GameID = s.ID
	for _, fn := range s.subscribers {
		fn(ev)
	}
}

// Record returns the persisted form of the game's setup.
func (s *Session) Record() models.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// PlayerSeat maps a player UUID to their engine seat index.
func (s *Session) PlayerSeat(playerID uuid.UUID) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.playerToSeat[playerID]
	return seat, ok
}

// ApplyGuess records one guess, propagates deductions, persists the turn
// and broadcasts the result.
func (s *Session) ApplyGuess(ctx context.Context, g models.Guess) (models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdictBefore := s.game.Verdict()
	if err := s.game.ApplyGuess(g.Engine()); err != nil {
		s.log.WithError(err).Warn("guess rejected")
		return models.Turn{}, err
	}
	turn := models.TurnFromEngine(s.game.History()[s.game.LastTurn()])

	if err := s.persistTurn(ctx, turn); err != nil {
		return models.Turn{}, err
	}
	s.audit(turn, "guess")
	s.broadcastTurn(EventTurnApplied, turn, verdictBefore)
	return turn, nil
}

// EnterPass records a turn on which the actor made no guess.
func (s *Session) EnterPass(ctx context.Context, actor uint8) (models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.EnterPass(actor); err != nil {
		s.log.WithError(err).Warn("pass rejected")
		return models.Turn{}, err
	}
	turn := models.TurnFromEngine(s.game.History()[s.game.LastTurn()])

	if err := s.persistTurn(ctx, turn); err != nil {
		return models.Turn{}, err
	}
	s.audit(turn, "pass")
	s.broadcastTurn(EventTurnApplied, turn, s.game.Verdict())
	return turn, nil
}

// ReplaceGuess corrects the guess at an earlier turn. The whole history
// replays from scratch and the persisted turn log is rewritten.
func (s *Session) ReplaceGuess(ctx context.Context, turnNumber int, g models.Guess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdictBefore := s.game.Verdict()
	if err := s.game.ReplaceGuess(turnNumber, g.Engine()); err != nil {
		s.log.WithError(err).WithField("turn", turnNumber).Warn("edit rejected")
		return err
	}

	if s.store != nil {
		turns := s.wireHistoryLocked()
		if err := s.store.ReplaceTurns(ctx, s.ID, turns); err != nil {
			return fmt.Errorf("persist edited history: %w", err)
		}
		if err := s.touchLocked(ctx); err != nil {
			return err
		}
	}

	edited := models.TurnFromEngine(s.game.History()[turnNumber])
	s.audit(edited, "edit")
	s.broadcastTurn(EventTurnReplaced, edited, verdictBefore)
	return nil
}

// SheetView returns the current sheet projection.
func (s *Session) SheetView() *SheetView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sheetView(s.game)
}

// VerdictView returns the current per-category solution projection.
func (s *Session) VerdictView() *VerdictView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return verdictView(s.game.Verdict())
}

// Progress returns the fraction of sheet cells no longer unknown.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Progress()
}

// History returns the wire form of the play history (turn 0 excluded).
func (s *Session) History() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wireHistoryLocked()
}

// wireHistoryLocked converts the engine history minus the synthetic
// seeding turn. Assumes lock is held by caller.
func (s *Session) wireHistoryLocked() []models.Turn {
	hist := s.game.History()
	out := make([]models.Turn, 0, len(hist)-1)
	for _, t := range hist[1:] {
		out = append(out, models.TurnFromEngine(t))
	}
	return out
}

// persistTurn appends the turn and bumps the record timestamp.
// Assumes lock is held by caller.
func (s *Session) persistTurn(ctx context.Context, turn models.Turn) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.AppendTurn(ctx, s.ID, turn); err != nil {
		return fmt.Errorf("persist turn %d: %w", turn.Number, err)
	}
	return s.touchLocked(ctx)
}

// touchLocked updates the record's updated_at stamp.
// Assumes lock is held by caller.
func (s *Session) touchLocked(ctx context.Context) error {
	s.rec.UpdatedAt = time.Now().UnixMilli()
	if err := s.store.PutGame(ctx, s.rec); err != nil {
		return fmt.Errorf("touch game record: %w", err)
	}
	return nil
}

// audit publishes the turn to the historian, fire-and-forget.
// Assumes lock is held by caller.
func (s *Session) audit(turn models.Turn, kind string) {
	if !s.historian.Enabled() {
		return
	}
	actorID := uuid.Nil
	if int(turn.Actor) < len(s.seatToPlayer) {
		actorID = s.seatToPlayer[turn.Actor]
	}
	rec := cache.GameTurnRecord{
		GameID:    s.ID,
		TurnIndex: turn.Number,
		ActorID:   actorID,
		Kind:      kind,
		Timestamp: time.Now().UnixMilli(),
	}
	if turn.Guess != nil {
		rec.Payload = map[string]interface{}{
			"suspect": turn.Guess.Suspect,
			"weapon":  turn.Guess.Weapon,
			"room":    turn.Guess.Room,
		}
	}
	log := s.log
	s.historian.PublishTurnAsync(rec, func(err error) {
		log.WithError(err).Error("failed publishing turn record")
	})
}

// broadcastTurn emits the turn event, the refreshed sheet, and a verdict
// event when a category newly resolved. Assumes lock is held by caller.
func (s *Session) broadcastTurn(kind EventType, turn models.Turn, verdictBefore engine.Verdict) {
	s.fireEvent(Event{Type: kind, Turn: &turn})
	s.fireEvent(Event{Type: EventSheetUpdate, Sheet: sheetView(s.game)})

	after := s.game.Verdict()
	if after != verdictBefore {
		s.fireEvent(Event{Type: EventVerdictFound, Verdict: verdictView(after)})
	}
}
