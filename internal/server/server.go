// Package server exposes the notebook over HTTP: a create-game endpoint
// and a per-game websocket carrying structured commands and events.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pmarlowe/sleuth/engine"
	"github.com/pmarlowe/sleuth/internal/models"
	"github.com/pmarlowe/sleuth/internal/session"
)

// Server routes HTTP and websocket traffic to the session manager.
type Server struct {
	mgr *session.Manager
	log *logrus.Logger
}

// New builds a server over the given session manager.
func New(mgr *session.Manager, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{mgr: mgr, log: log}
}

// Handler returns the HTTP routing surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("GET /ws/game/{id}", s.handleGameSocket)
	return mux
}

// CreateGameRequest is the JSON body for POST /games. Zero category
// counts fall back to the reference rule set (6/6/9).
type CreateGameRequest struct {
	Name     string          `json:"name"`
	Suspects uint8           `json:"suspects"`
	Weapons  uint8           `json:"weapons"`
	Rooms    uint8           `json:"rooms"`
	Players  []models.Player `json:"players"`
	Hand     []engine.Card   `json:"hand"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Suspects == 0 && req.Weapons == 0 && req.Rooms == 0 {
		req.Suspects, req.Weapons, req.Rooms = engine.DefaultSuspects, engine.DefaultWeapons, engine.DefaultRooms
	}
	for i := range req.Players {
		if req.Players[i].ID == uuid.Nil {
			req.Players[i].ID = uuid.New()
		}
	}

	catalog := engine.NewCatalog(req.Suspects, req.Weapons, req.Rooms)
	sess, err := s.mgr.Create(r.Context(), req.Name, catalog, req.Players, req.Hand)
	if err != nil {
		s.log.WithError(err).Warn("create game rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(sess.Record()); err != nil {
		s.log.WithError(err).Error("encode create response")
	}
}
