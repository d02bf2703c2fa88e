package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-clock",
	Short: "A face-recognition attendance clock over an append-only ledger",
	Long: `Face Clock turns face recognition events into attendance records.
It filters jittery detections, alternates Clock In / Clock Out per person
and day, snapshots worked hours at clock-out, and appends everything to a
date-scoped CSV ledger or a PostgreSQL database.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
