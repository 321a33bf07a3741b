package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pmarlowe/sleuth/engine"
	"github.com/pmarlowe/sleuth/internal/config"
	"github.com/pmarlowe/sleuth/internal/models"
	"github.com/pmarlowe/sleuth/internal/store/sqlite"
)

// C groups the output colors used by the notebook renderer.
var C = struct {
	Yes, No, Maybe, Info, Header *color.Color
}{
	Yes:    color.New(color.FgGreen),
	No:     color.New(color.FgRed),
	Maybe:  color.New(color.FgYellow),
	Info:   color.New(color.FgCyan),
	Header: color.New(color.FgWhite, color.Bold),
}

// Classic card names, used when a game was played with the reference
// rule set. Other catalogs fall back to positional labels (S0, W3, ...).
var (
	suspectNames = []string{"Miss Scarlett", "Colonel Mustard", "Mrs. White", "Mr. Green", "Mrs. Peacock", "Professor Plum"}
	weaponNames  = []string{"Revolver", "Knife", "Rope", "Candlestick", "Lead Pipe", "Wrench"}
	roomNames    = []string{"Kitchen", "Ballroom", "Dining Room", "Conservatory", "Billiard Room", "Library", "Lounge", "Hall", "Study"}
)

var showCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Render the deduced notebook for a stored game",
	Long: `Show loads a stored game, replays its full history through the
deduction engine, and renders the resulting knowledge sheet, per-category
verdicts and progress.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	gameID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid game id %q: %w", args[0], err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	rec, turns, err := store.LoadGame(ctx, gameID)
	if err != nil {
		return err
	}
	game, err := engine.Rebuild(rec.Catalog(), rec.EnginePlayers(), rec.Hand, models.EngineTurns(turns))
	if err != nil {
		return fmt.Errorf("replay game: %w", err)
	}

	C.Header.Printf("%s — %d turns recorded\n\n", rec.Name, len(turns))
	renderNotebook(game)
	renderVerdict(game)
	return nil
}

func renderNotebook(game *engine.Game) {
	catalog := game.Catalog()
	players := game.Players()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	header := table.Row{"Card"}
	for _, p := range players {
		name := p.Name
		if p.Detective {
			name += " *"
		}
		header = append(header, name)
	}
	t.AppendHeader(header)

	for cat := engine.Category(0); cat < engine.NumCategories; cat++ {
		if cat > 0 {
			t.AppendSeparator()
		}
		for _, card := range catalog.Cards(cat) {
			row := table.Row{cardLabel(catalog, card)}
			for seat := range players {
				st, err := game.StatusOf(uint8(seat), card)
				if err != nil {
					continue
				}
				row = append(row, cellMark(st))
			}
			t.AppendRow(row)
		}
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}

func renderVerdict(game *engine.Game) {
	v := game.Verdict()
	catalog := game.Catalog()

	parts := make([]string, 0, engine.NumCategories)
	for cat := engine.Category(0); cat < engine.NumCategories; cat++ {
		idx := v.For(cat)
		if idx < 0 {
			parts = append(parts, C.Maybe.Sprint("?"))
			continue
		}
		parts = append(parts, C.Yes.Sprint(cardLabel(catalog, engine.NewCard(cat, uint8(idx)))))
	}

	fmt.Println()
	C.Info.Printf("Verdict: %s / %s / %s\n", parts[0], parts[1], parts[2])
	C.Info.Printf("Progress: %.0f%% of cells deduced\n", game.Progress()*100)
}

func cellMark(st engine.CellStatus) string {
	switch st {
	case engine.Had:
		return C.Yes.Sprint("✔")
	case engine.NotHad:
		return C.No.Sprint("✘")
	default:
		return C.Maybe.Sprint("?")
	}
}

// cardLabel names a card: classic names for the reference rule set,
// positional labels otherwise.
func cardLabel(catalog engine.Catalog, card engine.Card) string {
	names := map[engine.Category][]string{
		engine.CategorySuspect: suspectNames,
		engine.CategoryWeapon:  weaponNames,
		engine.CategoryRoom:    roomNames,
	}[card.Category()]
	if int(catalog.Count(card.Category())) == len(names) {
		return names[card.Index()]
	}
	return card.String()
}
