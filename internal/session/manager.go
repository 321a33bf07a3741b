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

// Manager tracks live sessions by game id. Store and historian may be
// nil, in which case games live in memory only and nothing is audited.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	store     *sqlite.Store
	historian *cache.Historian
	log       *logrus.Logger
}

// NewManager builds a session manager over the given backends.
func NewManager(store *sqlite.Store, historian *cache.Historian, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		sessions:  make(map[uuid.UUID]*Session),
		store:     store,
		historian: historian,
		log:       log,
	}
}

// Create validates the setup against the engine, persists the new game
// record and registers a live session for it.
func (m *Manager) Create(ctx context.Context, name string, catalog engine.Catalog, players []models.Player, hand []engine.Card) (*Session, error) {
	rec := models.GameRecord{
		ID:       uuid.New(),
		Name:     name,
		Suspects: catalog.Count(engine.CategorySuspect),
		Weapons:  catalog.Count(engine.CategoryWeapon),
		Rooms:    catalog.Count(engine.CategoryRoom),
		Players:  players,
		Hand:     hand,
	}
	now := time.Now().UnixMilli()
	rec.CreatedAt, rec.UpdatedAt = now, now

	game, err := engine.NewGame(catalog, rec.EnginePlayers(), hand)
	if err != nil {
		return nil, err
	}

	if m.store != nil {
		if err := m.store.PutGame(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist new game: %w", err)
		}
	}

	s := newSession(rec, game, m.store, m.historian, m.log)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"game": s.ID, "players": len(players)}).Info("game created")
	s.mu.Lock()
	s.audit(models.Turn{Number: 0, Actor: game.Detective()}, "create")
	s.fireEvent(Event{Type: EventGameCreated, Sheet: sheetView(game)})
	s.mu.Unlock()
	return s, nil
}

// Get returns the live session for a game id, if one is loaded.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Load returns the live session for a game, restoring it from the store
// by deterministic replay when it is not already loaded.
func (m *Manager) Load(ctx context.Context, id uuid.UUID) (*Session, error) {
	if s, ok := m.Get(id); ok {
		return s, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", sqlite.ErrNotFound, id)
	}

	rec, turns, err := m.store.LoadGame(ctx, id)
	if err != nil {
		return nil, err
	}
	game, err := engine.Rebuild(rec.Catalog(), rec.EnginePlayers(), rec.Hand, models.EngineTurns(turns))
	if err != nil {
		return nil, fmt.Errorf("replay game %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Someone else may have loaded it while we replayed.
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := newSession(rec, game, m.store, m.historian, m.log)
	m.sessions[id] = s
	m.log.WithFields(logrus.Fields{"game": id, "turns": len(turns)}).Info("game restored from store")
	return s, nil
}

// Remove drops a session from the live set. Its persisted record stays.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
