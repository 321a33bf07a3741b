package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sleuth",
	Short: "Sleuth - a deduction notebook for Clue-style games",
	Long: `Sleuth keeps a detective's notebook for Clue-style hidden-information
games. It records guesses, shows and passes, propagates every deduction
to a fixed point, and tells you who holds what and which cards form the
solution.

Run 'sleuth serve' to host the websocket notebook service, or
'sleuth show <game-id>' to render a stored game's deductions.`,
}

// Execute adds all child commands to the root command and runs it.
// Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
