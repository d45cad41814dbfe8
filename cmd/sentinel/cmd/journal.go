package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentinel/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the enforcement journal",
	Long: `Query enforcement events from a SQLite journal.

Examples:
  sentinel journal -db ./sentinel.sqlite today
  sentinel journal -db ./sentinel.sqlite day 2026-08-21
  sentinel journal -db ./sentinel.sqlite event 01J5ZX...`,
}

var journalDBPath string

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List today's enforcement events",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
		return listEvents(start, start.Add(24*time.Hour))
	},
}

var journalDayCmd = &cobra.Command{
	Use:   "day YYYY-MM-DD",
	Short: "List enforcement events for a given day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid day %q: %w", args[0], err)
		}
		return listEvents(start, start.Add(24*time.Hour))
	},
}

var journalEventCmd = &cobra.Command{
	Use:   "event ID",
	Short: "Show a single event by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.NewSQLite(journalDBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()

		e, err := j.GetEvent(args[0])
		if err != nil {
			return err
		}
		printEvent(e)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "./sentinel.sqlite", "path to SQLite journal DB")
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalEventCmd)
}

func listEvents(start, end time.Time) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	events, err := j.ListEventsBetween(start, end)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no events")
		return nil
	}

	for _, e := range events {
		printEvent(e)
	}

	counts, err := j.CountByAction(start, end)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d events", len(events))
	if n := counts[journal.ActionPositionClosed]; n > 0 {
		fmt.Printf(", %d closes", n)
	}
	if n := counts[journal.ActionSneakyBlocked]; n > 0 {
		fmt.Printf(", %d sneaky blocked", n)
	}
	fmt.Println()
	return nil
}

func printEvent(e journal.Event) {
	fmt.Printf("%s  %-18s  pnl=%8.2f  pos=%d  [%s]  %s\n",
		e.Time.Format("2006-01-02 15:04:05.000"), e.Action, e.PnL, e.Positions, e.Outcome, e.Detail)
}
