package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmarlowe/sleuth/engine"
	"github.com/pmarlowe/sleuth/internal/models"
	"github.com/pmarlowe/sleuth/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	srv := httptest.NewServer(New(session.NewManager(nil, nil, log), log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func createTestGame(t *testing.T, srv *httptest.Server) models.GameRecord {
	t.Helper()
	req := CreateGameRequest{
		Name: "ws test",
		Players: []models.Player{
			{Name: "You", Suspect: 0, HandSize: 6, Detective: true},
			{Name: "Ash", Suspect: 1, HandSize: 6},
			{Name: "Morgan", Suspect: 2, HandSize: 6},
		},
		Hand: []engine.Card{
			engine.NewCard(engine.CategoryRoom, 0),
			engine.NewCard(engine.CategoryRoom, 1),
			engine.NewCard(engine.CategoryRoom, 2),
			engine.NewCard(engine.CategoryWeapon, 0),
			engine.NewCard(engine.CategoryWeapon, 1),
			engine.NewCard(engine.CategorySuspect, 4),
		},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/games", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec models.GameRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	require.NotEqual(t, uuid.Nil, rec.ID)
	return rec
}

func dialGame(t *testing.T, srv *httptest.Server, id uuid.UUID) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game/" + id.String()
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) session.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var ev session.Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	return ev
}

func TestCreateGameValidation(t *testing.T) {
	srv := newTestServer(t)

	// Hand size mismatch is rejected by the engine during creation.
	body := []byte(`{"name":"bad","players":[
		{"name":"You","suspect":0,"handSize":6,"detective":true},
		{"name":"Ash","suspect":1,"handSize":6},
		{"name":"Morgan","suspect":2,"handSize":6}],"hand":[0]}`)
	resp, err := http.Post(srv.URL+"/games", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGameSocketGuessFlow(t *testing.T) {
	srv := newTestServer(t)
	rec := createTestGame(t, srv)
	conn := dialGame(t, srv, rec.ID)

	// First frame is always the current sheet.
	ev := readEvent(t, conn)
	require.Equal(t, session.EventSheetUpdate, ev.Type)
	require.NotNil(t, ev.Sheet)
	assert.Equal(t, []string{"You", "Ash", "Morgan"}, ev.Sheet.Players)

	// No-show guess on the rope: others ruled out, weapon verdict found.
	ctx := context.Background()
	cmd := Command{Op: "guess", Guess: &models.Guess{Suspect: 4, Weapon: 2, Room: 0, Guesser: 0}}
	require.NoError(t, wsjson.Write(ctx, conn, cmd))

	ev = readEvent(t, conn)
	require.Equal(t, session.EventTurnApplied, ev.Type)
	require.NotNil(t, ev.Turn)
	assert.Equal(t, 1, ev.Turn.Number)

	ev = readEvent(t, conn)
	require.Equal(t, session.EventSheetUpdate, ev.Type)

	ev = readEvent(t, conn)
	require.Equal(t, session.EventVerdictFound, ev.Type)
	require.NotNil(t, ev.Verdict)
	require.NotNil(t, ev.Verdict.Weapon)
	assert.Equal(t, uint8(2), *ev.Verdict.Weapon)

	// History query replies directly.
	require.NoError(t, wsjson.Write(ctx, conn, Command{Op: "history"}))
	ev = readEvent(t, conn)
	require.Equal(t, session.EventHistory, ev.Type)
	require.Len(t, ev.Turns, 1)
}

func TestGameSocketRejectsBadGuess(t *testing.T) {
	srv := newTestServer(t)
	rec := createTestGame(t, srv)
	conn := dialGame(t, srv, rec.ID)
	readEvent(t, conn) // initial sheet

	ctx := context.Background()
	shower := uint8(1)
	// The detective holds all three cards; Ash cannot have shown one.
	cmd := Command{Op: "guess", Guess: &models.Guess{Suspect: 4, Weapon: 0, Room: 0, Guesser: 2, Shower: &shower}}
	require.NoError(t, wsjson.Write(ctx, conn, cmd))

	ev := readEvent(t, conn)
	assert.Equal(t, session.EventError, ev.Type)
	assert.Contains(t, ev.Message, "show")
}

func TestGameSocketUnknownGame(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game/" + uuid.NewString()
	_, _, err := websocket.Dial(ctx, wsURL, nil)
	assert.Error(t, err)
}
