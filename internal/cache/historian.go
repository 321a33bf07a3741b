// Package cache publishes applied turns to Redis for external audit
// consumers. Publishing is best-effort: a missing or unreachable Redis
// never blocks play, it only loses the audit trail.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// turnListKey is the Redis list every turn record is pushed onto.
const turnListKey = "sleuth:turns"

// publishTimeout bounds each fire-and-forget publish.
const publishTimeout = 2 * time.Second

// GameTurnRecord is one applied turn as published to the audit list.
type GameTurnRecord struct {
	GameID    uuid.UUID              `json:"gameId"`
	TurnIndex int                    `json:"turnIndex"`
	ActorID   uuid.UUID              `json:"actorId"` // Nil for game-level events
	Kind      string                 `json:"kind"`    // "create", "guess", "pass", "edit"
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"` // unix millis
}

// Historian wraps the Redis client used for turn auditing.
type Historian struct {
	rdb *redis.Client
}

// New connects a historian to the given Redis address. An empty address
// returns a disabled historian whose publishes are no-ops.
func New(addr string) *Historian {
	if addr == "" {
		return &Historian{}
	}
	return &Historian{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(rdb *redis.Client) *Historian {
	return &Historian{rdb: rdb}
}

// Enabled reports whether a Redis backend is configured.
func (h *Historian) Enabled() bool {
	return h != nil && h.rdb != nil
}

// Close releases the Redis connection.
func (h *Historian) Close() error {
	if !h.Enabled() {
		return nil
	}
	return h.rdb.Close()
}

// PublishTurn appends the record to the audit list.
func (h *Historian) PublishTurn(ctx context.Context, rec GameTurnRecord) error {
	if !h.Enabled() {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal turn record: %w", err)
	}
	if err := h.rdb.RPush(ctx, turnListKey, data).Err(); err != nil {
		return fmt.Errorf("publish turn record: %w", err)
	}
	return nil
}

// PublishTurnAsync publishes in the background with a short timeout and
// reports failures through onErr. The caller never waits on Redis.
func (h *Historian) PublishTurnAsync(rec GameTurnRecord, onErr func(error)) {
	if !h.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.PublishTurn(ctx, rec); err != nil && onErr != nil {
			onErr(err)
		}
	}()
}

// Turns returns the records currently on the audit list, oldest first.
func (h *Historian) Turns(ctx context.Context) ([]GameTurnRecord, error) {
	if !h.Enabled() {
		return nil, nil
	}
	raw, err := h.rdb.LRange(ctx, turnListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read turn records: %w", err)
	}
	out := make([]GameTurnRecord, 0, len(raw))
	for _, item := range raw {
		var rec GameTurnRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal turn record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
