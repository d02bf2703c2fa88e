package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var hoursCmd = &cobra.Command{
	Use:   "hours <identity>",
	Short: "Print worked hours for one identity and date",
	Args:  cobra.ExactArgs(1),
	RunE:  runHours,
}

func init() {
	rootCmd.AddCommand(hoursCmd)

	hoursCmd.Flags().String("date", "", "Date to show (YYYY-MM-DD, default today)")
}

func runHours(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	date, err := resolveDate(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	recorder := attendance.NewRecorder(cfg.Policy, store)

	state, next, err := recorder.DayStatus(ctx, args[0], date)
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}
	closed, live, err := recorder.DayHours(ctx, args[0], date)
	if err != nil {
		return fmt.Errorf("reading hours: %w", err)
	}

	fmt.Printf("Date:        %s\n", date)
	fmt.Printf("Session:     %s\n", state)
	fmt.Printf("Next status: %s\n", next)
	fmt.Printf("Closed:      %s\n", attendance.FormatHours(closed))
	if state == attendance.OpenSession {
		fmt.Printf("Live:        %s (session still open)\n", attendance.FormatHours(live))
	}
	return nil
}
