package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/pmarlowe/sleuth/internal/models"
	"github.com/pmarlowe/sleuth/internal/session"
	"github.com/pmarlowe/sleuth/internal/store/sqlite"
)

// Command is one structured client request on the game socket. Guesses
// arrive as card indices; free-text parsing is a client concern.
type Command struct {
	Op    string        `json:"op"` // "guess" | "pass" | "edit" | "sheet" | "verdict" | "history"
	Actor uint8         `json:"actor,omitempty"`
	Turn  int           `json:"turn,omitempty"`
	Guess *models.Guess `json:"guess,omitempty"`
}

func (s *Server) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	sess, err := s.mgr.Load(r.Context(), gameID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sqlite.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := s.log.WithField("game", gameID)
	log.Info("client connected")

	// All writes go through one channel so broadcast fan-out and command
	// replies never interleave on the wire.
	events := make(chan session.Event, 64)
	send := func(ev session.Event) {
		ev.GameID = sess.ID
		select {
		case events <- ev:
		default:
			log.Warn("event buffer full, dropping event")
		}
	}
	unsubscribe := sess.Subscribe(send)
	defer unsubscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if err := wsjson.Write(ctx, conn, ev); err != nil {
					return
				}
			}
		}
	}()

	// Clients always start from the current sheet.
	send(session.Event{Type: session.EventSheetUpdate, Sheet: sess.SheetView()})

	for {
		var cmd Command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			break
		}
		s.dispatch(ctx, sess, cmd, send)
	}

	log.Info("client disconnected")
	conn.Close(websocket.StatusNormalClosure, "")
	cancel()
	<-writerDone
}

// dispatch executes one command. Mutations reply through the session's
// broadcast; queries and failures reply directly to this client.
func (s *Server) dispatch(ctx context.Context, sess *session.Session, cmd Command, send func(session.Event)) {
	fail := func(err error) {
		send(session.Event{Type: session.EventError, Message: err.Error()})
	}

	switch cmd.Op {
	case "guess":
		if cmd.Guess == nil {
			fail(errors.New("guess command requires a guess"))
			return
		}
		if _, err := sess.ApplyGuess(ctx, *cmd.Guess); err != nil {
			fail(err)
		}
	case "pass":
		if _, err := sess.EnterPass(ctx, cmd.Actor); err != nil {
			fail(err)
		}
	case "edit":
		if cmd.Guess == nil {
			fail(errors.New("edit command requires a guess"))
			return
		}
		if err := sess.ReplaceGuess(ctx, cmd.Turn, *cmd.Guess); err != nil {
			fail(err)
		}
	case "sheet":
		send(session.Event{Type: session.EventSheetUpdate, Sheet: sess.SheetView()})
	case "verdict":
		send(session.Event{Type: session.EventVerdictFound, Verdict: sess.VerdictView()})
	case "history":
		send(session.Event{Type: session.EventHistory, Turns: sess.History()})
	default:
		fail(errors.New("unknown op: " + cmd.Op))
	}
}
