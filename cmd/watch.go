package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Consume a recognition event stream and record attendance",
	Long: `Read newline-delimited JSON recognition events from stdin (or a file)
and feed them through the recording pipeline. Each line is one event:

  {"identity":"jan novak","confidence":0.93,"face_center":{"x":320,"y":240},"trigger":"auto"}

A line with "gone":true ends the identity's detection streak instead of
recording. Malformed lines are logged and skipped; the stream continues.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("file", "", "Read events from a file instead of stdin")
	watchCmd.Flags().Bool("quiet", false, "Only print recorded outcomes")
}

// watchLine is one line of the event stream.
type watchLine struct {
	attendance.Event
	Trigger string `json:"trigger"`
	Gone    bool   `json:"gone"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	recorder := attendance.NewRecorder(cfg.Policy, store)

	var input io.Reader = os.Stdin
	if file := mustGetString(cmd, "file"); file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("opening event file: %w", err)
		}
		defer f.Close()
		input = f
	}

	quiet := mustGetBool(cmd, "quiet")
	return watchStream(ctx, recorder, input, os.Stdout, quiet)
}

// watchStream pumps one event stream through the recorder. Events default to
// the auto trigger because streams come from the camera pipeline; a kiosk
// button press marks its events "trigger":"manual".
func watchStream(ctx context.Context, recorder *attendance.Recorder, input io.Reader, out io.Writer, quiet bool) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line watchLine
		if err := json.Unmarshal(raw, &line); err != nil {
			fmt.Fprintf(out, "line %d: bad JSON, skipped: %v\n", lineNo, err)
			continue
		}

		if line.Gone {
			recorder.Forget(line.Identity)
			continue
		}

		trigger := attendance.TriggerAuto
		if line.Trigger == string(attendance.TriggerManual) {
			trigger = attendance.TriggerManual
		}

		outcome, err := recorder.Handle(ctx, line.Event, trigger)
		if err != nil {
			if errors.Is(err, attendance.ErrInvalidEvent) {
				fmt.Fprintf(out, "line %d: %v\n", lineNo, err)
				continue
			}
			return fmt.Errorf("handling event at line %d: %w", lineNo, err)
		}

		printOutcome(out, outcome, quiet)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}

func printOutcome(out io.Writer, outcome attendance.Outcome, quiet bool) {
	switch outcome.Kind {
	case attendance.OutcomeRecorded:
		rec := outcome.Record
		line := fmt.Sprintf("recorded  %s  %s  %s", rec.Identity, rec.Status, rec.Time)
		if rec.WorkHours != "" {
			line += "  worked " + rec.WorkHours
		}
		if len(rec.Flags) > 0 {
			line += fmt.Sprintf("  flags=%v", rec.Flags)
		}
		fmt.Fprintln(out, line)
	default:
		if !quiet {
			fmt.Fprintf(out, "%s  (%s)\n", outcome.Kind, outcome.Reason)
		}
	}
}
