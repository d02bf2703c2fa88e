package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/ledger"
	"github.com/kozaktomas/face-clock/internal/ledger/csvfile"
	"github.com/kozaktomas/face-clock/internal/ledger/postgres"
)

// openStore picks the record backend: PostgreSQL when AT_DATABASE_URL is
// set, date-scoped CSV files otherwise.
func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	if cfg.Database.URL != "" {
		fmt.Println("Using PostgreSQL backend")
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return postgres.NewRecordRepository(pool), nil
	}

	fmt.Printf("Using CSV ledger in %s\n", cfg.Ledger.Dir)
	return csvfile.New(cfg.Ledger.Dir), nil
}
