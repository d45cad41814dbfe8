package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentinel/broker/sim"
	"github.com/rustyeddy/sentinel/clock"
	"github.com/rustyeddy/sentinel/config"
	"github.com/rustyeddy/sentinel/guardian"
	"github.com/rustyeddy/sentinel/journal"
	"github.com/rustyeddy/sentinel/market"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted breach scenario against the in-memory gateway",
	Long: `Run the guardian against the deterministic in-memory gateway with a
scripted losing position, so the full breach sequence can be observed
without a broker connection:

  1. The guardian starts in NORMAL mode with one losing position
  2. The loss breaches the ceiling and every position is closed
  3. A sneaky position opened during block mode is closed immediately

Events are journaled to CSV in the directory given by --logs.`,
	RunE: runDemo,
}

var demoLogDir string

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoLogDir, "logs", "./demo-logs", "directory for the CSV journal")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.Guardian.MaxLoss = -300
	cfg.Guardian.NormalInterval = config.Duration(200 * time.Millisecond)
	cfg.Guardian.BlockInterval = config.Duration(50 * time.Millisecond)
	cfg.Journal.Dir = demoLogDir

	fmt.Println("=== Guardian Breach Demo ===")
	fmt.Printf("Loss ceiling: %.2f\n\n", cfg.Guardian.MaxLoss)

	jnl, err := journal.NewCSV(cfg.Journal.Dir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	gw := sim.New()
	gw.SetTick(market.Tick{Symbol: "XAUUSD", Bid: 2380.50, Ask: 2380.80, Time: time.Now()})
	gw.OpenPosition(market.Position{
		Ticket: 1001, Symbol: "XAUUSD", Side: market.Long,
		Volume: 0.10, OpenPrice: 2392.00, CurrentPrice: 2380.50,
		Profit: -350, OpenTime: time.Now(),
	})
	fmt.Println("Opened losing position 1001 (floating -350.00)")

	// The sneaky position appears once the block has tripped.
	go func() {
		time.Sleep(600 * time.Millisecond)
		gw.OpenPosition(market.Position{
			Ticket: 1002, Symbol: "XAUUSD", Side: market.Short,
			Volume: 0.05, OpenPrice: 2380.50, CurrentPrice: 2380.50,
			Profit: 0, OpenTime: time.Now(),
		})
		fmt.Println("Trader sneaks in position 1002 during block mode...")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	g := guardian.New(gw, clock.System{}, jnl, cfg.Guardian, cfg.Gateway)
	if err := g.Run(ctx); err != nil && err != context.DeadlineExceeded {
		return err
	}

	snap := g.Snapshot()
	fmt.Println("\nScenario complete:")
	fmt.Printf("  Mode:                   %s\n", snap.Mode)
	fmt.Printf("  Positions closed today: %d\n", snap.PositionsClosed)
	fmt.Printf("  Sneaky trades blocked:  %d\n", snap.SneakyBlocked)
	fmt.Printf("  Journal:                %s\n", demoLogDir)
	return nil
}
