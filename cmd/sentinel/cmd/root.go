package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "A trading-risk enforcement daemon",
	Long: `Sentinel watches an account's daily P&L against a configured loss
ceiling. When the ceiling is breached it force-closes every open position
and enters block mode, aggressively closing any position opened before the
next scheduled daily reset.

It provides tools for:
  - Running the enforcement daemon against an MT5 bridge
  - Replaying a scripted scenario against the in-memory gateway
  - Querying the enforcement journal
  - Inspecting and generating configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
