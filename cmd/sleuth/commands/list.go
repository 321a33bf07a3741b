package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pmarlowe/sleuth/internal/config"
	"github.com/pmarlowe/sleuth/internal/store/sqlite"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored games",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	recs, err := store.ListGames(context.Background())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No stored games.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Name", "Players", "Updated"})
	for _, rec := range recs {
		updated := time.UnixMilli(rec.UpdatedAt).UTC().Format(time.RFC3339)
		t.AppendRow(table.Row{rec.ID, rec.Name, len(rec.Players), updated})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
