package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/ledger"
	"github.com/kozaktomas/face-clock/internal/ledger/csvfile"
	"github.com/kozaktomas/face-clock/internal/ledger/mariadb"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import attendance history from an old installation",
	Long: `Import attendance records into the active backend.

Two sources are supported:
  --from-csv <dir>   a directory of date-scoped attendance CSV files,
                     including files written by older takers with fewer
                     columns
  --from-db          the MariaDB of an old HRIS installation, connected
                     via AT_LEGACY_DATABASE_URL

Identities are normalized on the way in, so "Jan-Novák" and "jan novak"
end up as the same person.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("from-csv", "", "Directory of legacy attendance CSV files")
	importCmd.Flags().Bool("from-db", false, "Import from the legacy MariaDB (AT_LEGACY_DATABASE_URL)")
}

// importSource is the read side of an import: a list of dates and the
// records for each.
type importSource interface {
	Dates(ctx context.Context) ([]string, error)
	DateRecords(ctx context.Context, date string) ([]attendance.Record, error)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	fromCSV := mustGetString(cmd, "from-csv")
	fromDB := mustGetBool(cmd, "from-db")
	if (fromCSV == "") == !fromDB {
		return errors.New("choose exactly one source: --from-csv <dir> or --from-db")
	}

	var source importSource
	if fromDB {
		if cfg.Legacy.DatabaseDSN == "" {
			return errors.New("AT_LEGACY_DATABASE_URL environment variable is required for --from-db")
		}
		pool, err := mariadb.NewPool(cfg.Legacy.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("connecting to legacy MariaDB: %w", err)
		}
		defer pool.Close()
		source = mariadb.NewLegacyReader(pool)
	} else {
		source = csvfile.New(fromCSV)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	imported, err := importRecords(ctx, source, store)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d records\n", imported)
	return nil
}

// importRecords copies every record from the source into the store, one date
// at a time so partial imports stop on a date boundary.
func importRecords(ctx context.Context, source importSource, store ledger.Store) (int, error) {
	dates, err := source.Dates(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing source dates: %w", err)
	}
	if len(dates) == 0 {
		return 0, nil
	}

	bar := progressbar.NewOptions(len(dates),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("days"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	imported := 0
	for _, date := range dates {
		records, err := source.DateRecords(ctx, date)
		if err != nil {
			return imported, fmt.Errorf("reading source records for %s: %w", date, err)
		}
		for _, rec := range records {
			if err := store.AppendRecord(ctx, rec); err != nil {
				return imported, fmt.Errorf("appending record for %s: %w", date, err)
			}
			imported++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()
	return imported, nil
}
