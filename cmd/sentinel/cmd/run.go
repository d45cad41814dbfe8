package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/broker/mt5bridge"
	"github.com/rustyeddy/sentinel/clock"
	"github.com/rustyeddy/sentinel/config"
	"github.com/rustyeddy/sentinel/guardian"
	"github.com/rustyeddy/sentinel/health"
	"github.com/rustyeddy/sentinel/journal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enforcement daemon",
	Long: `Run the guardian enforcement loop against an MT5 bridge.

Configuration comes from a YAML or JSON file, overridden by SENTINEL_*
environment variables (a .env file is honored when no config file is given).

Example:
  sentinel run -f sentinel.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if runConfigPath != "" {
		return config.LoadFromFile(runConfigPath)
	}
	return config.LoadEnv()
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	if cfg.Journal.Type == "sqlite" {
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return journal.NewCSV(cfg.Journal.Dir)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("============================================================")
	fmt.Println("  SENTINEL - RISK GUARDIAN")
	fmt.Println("============================================================")
	fmt.Printf("  Max Loss:    %.2f\n", cfg.Guardian.MaxLoss)
	fmt.Printf("  Daily Reset: %02d:%02d\n", cfg.Guardian.ResetHour, cfg.Guardian.ResetMinute)
	fmt.Printf("  Bridge:      %s\n", cfg.Gateway.BridgeURL)
	if cfg.Health.Enabled {
		fmt.Printf("  Health:      http://%s/health\n", cfg.Health.Addr)
	}
	fmt.Println("============================================================")
	fmt.Println()

	jnl, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	gw := mt5bridge.NewClient(cfg.Gateway.BridgeURL, cfg.Gateway.Token)
	defer gw.Close()

	return runGuardian(gw, jnl, cfg)
}

func runGuardian(gw broker.Gateway, jnl journal.Journal, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := guardian.New(gw, clock.System{}, jnl, cfg.Guardian, cfg.Gateway)

	if cfg.Health.Enabled {
		srv := health.NewServer(cfg.Health.Addr, g)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("health server: %v", err)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
		}()
	}

	err := g.Run(ctx)

	snap := g.Snapshot()
	fmt.Println("\nGuardian stopped. Final stats:")
	fmt.Printf("  Positions closed today: %d\n", snap.PositionsClosed)
	fmt.Printf("  Sneaky trades blocked:  %d\n", snap.SneakyBlocked)

	if err == context.Canceled {
		return nil
	}
	return err
}
