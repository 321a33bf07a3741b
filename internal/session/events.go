package session

import (
	"github.com/google/uuid"

	"github.com/pmarlowe/sleuth/engine"
	"github.com/pmarlowe/sleuth/internal/models"
)

// EventType identifies a notebook event broadcast to connected clients.
type EventType string

// Event types sent over the websocket transport.
const (
	EventGameCreated  EventType = "game_created"   // Public: a new game exists.
	EventTurnApplied  EventType = "turn_applied"   // Public: a guess or pass was recorded.
	EventTurnReplaced EventType = "turn_replaced"  // Public: a past guess was corrected.
	EventSheetUpdate  EventType = "sheet_update"   // Public: deductions changed; full sheet attached.
	EventVerdictFound EventType = "verdict_update" // Public: a category verdict changed.
	EventHistory      EventType = "history"        // Reply: the full play history.
	EventError        EventType = "error"          // Private: a command was rejected.
)

// Event is the envelope broadcast for every notebook state change.
type Event struct {
	Type    EventType     `json:"type"`
	GameID  uuid.UUID     `json:"gameId"`
	Turn    *models.Turn  `json:"turn,omitempty"`
	Turns   []models.Turn `json:"turns,omitempty"`
	Sheet   *SheetView    `json:"sheet,omitempty"`
	Verdict *VerdictView  `json:"verdict,omitempty"`
	Message string        `json:"message,omitempty"`
}

// SheetView is the JSON projection of a knowledge sheet.
type SheetView struct {
	Players  []string   `json:"players"`
	Cards    []string   `json:"cards"`
	Cells    [][]string `json:"cells"` // [card ordinal][seat]: "unknown" | "had" | "not-had"
	Progress float64    `json:"progress"`
}

// VerdictView is the JSON projection of the per-category solution.
type VerdictView struct {
	Suspect  *uint8 `json:"suspect,omitempty"`
	Weapon   *uint8 `json:"weapon,omitempty"`
	Room     *uint8 `json:"room,omitempty"`
	Complete bool   `json:"complete"`
}

func sheetView(g *engine.Game) *SheetView {
	catalog := g.Catalog()
	players := g.Players()
	view := &SheetView{
		Players:  make([]string, len(players)),
		Cards:    make([]string, 0, catalog.TotalCards()),
		Cells:    make([][]string, 0, catalog.TotalCards()),
		Progress: g.Progress(),
	}
	for i, p := range players {
		view.Players[i] = p.Name
	}
	for _, c := range catalog.AllCards() {
		view.Cards = append(view.Cards, c.String())
		row := make([]string, len(players))
		for seat := range players {
			st, err := g.StatusOf(uint8(seat), c)
			if err != nil {
				st = engine.Unknown
			}
			row[seat] = st.String()
		}
		view.Cells = append(view.Cells, row)
	}
	return view
}

func verdictView(v engine.Verdict) *VerdictView {
	view := &VerdictView{Complete: v.Complete()}
	if v.Suspect >= 0 {
		s := uint8(v.Suspect)
		view.Suspect = &s
	}
	if v.Weapon >= 0 {
		w := uint8(v.Weapon)
		view.Weapon = &w
	}
	if v.Room >= 0 {
		r := uint8(v.Room)
		view.Room = &r
	}
	return view
}
