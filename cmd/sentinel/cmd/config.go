package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentinel/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init PATH",
	Short: "Write a default config file (YAML or JSON by extension)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if err := cfg.SaveToFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check PATH",
	Short: "Validate a config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s is valid\n", args[0])
		fmt.Printf("  max_loss=%.2f reset=%02d:%02d normal=%s block=%s\n",
			cfg.Guardian.MaxLoss, cfg.Guardian.ResetHour, cfg.Guardian.ResetMinute,
			cfg.Guardian.NormalInterval, cfg.Guardian.BlockInterval)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
