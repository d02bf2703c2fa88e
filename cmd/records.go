package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records [identity]",
	Short: "Print attendance records for a date",
	Long: `Print the attendance ledger for one date. With an identity argument
only that person's records are shown, otherwise the whole day.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().String("date", "", "Date to show (YYYY-MM-DD, default today)")
}

// resolveDate validates the --date flag, defaulting to today.
func resolveDate(cmd *cobra.Command) (string, error) {
	date := mustGetString(cmd, "date")
	if date == "" {
		return attendance.DateOf(time.Now()), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return date, nil
}

func runRecords(cmd *cobra.Command, args []string) error {
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

	var records []attendance.Record
	if len(args) == 1 {
		records, err = store.DayRecords(ctx, args[0], date)
	} else {
		records, err = store.DateRecords(ctx, date)
	}
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("No records for %s\n", date)
		return nil
	}

	fmt.Printf("%-25s %-10s %-10s %-8s %s\n", "IDENTITY", "TIME", "STATUS", "WORKED", "FLAGS")
	for _, rec := range records {
		flags := make([]string, len(rec.Flags))
		for i, f := range rec.Flags {
			flags[i] = string(f)
		}
		fmt.Printf("%-25s %-10s %-10s %-8s %s\n",
			rec.Identity, rec.Time, rec.Status, rec.WorkHours, strings.Join(flags, ","))
	}
	return nil
}
