package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gltp/captrack/internal/config"
	"github.com/gltp/captrack/internal/maps"
	"github.com/gltp/captrack/internal/tagpro"
	"github.com/gltp/captrack/pkg/replay"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// parseCmd parses a single replay and prints the capture record without
// touching the database. Useful for checking a run before submitting it.
func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <uuid|link>",
		Short: "Parse a replay and print the capture record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			lookup, errLookup := maps.NewSheetSource(conf.Maps.SheetURL).Fetch(ctx)
			if errLookup != nil {
				return errLookup
			}

			events, errFetch := tagpro.NewClient().Replay(ctx, args[0])
			if errFetch != nil {
				return errFetch
			}

			rec, errExtract := replay.Extract(events, lookup)
			if errExtract != nil {
				return errExtract
			}

			printRecord(rec)

			return nil
		},
	}
}

func printRecord(rec *replay.CaptureRecord) {
	elapsed := "no capture"
	if rec.RecordTime != nil {
		elapsed = replay.FormatRecordTime(*rec.RecordTime)
	}

	capper := ""
	if rec.CappingPlayer != nil {
		capper = *rec.CappingPlayer
	}

	quote := ""
	if rec.CappingPlayerQuote != nil {
		quote = *rec.CappingPlayerQuote
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header("Field", "Value")
	table.Append([]string{"UUID", rec.UUID})
	table.Append([]string{"Map", fmt.Sprintf("%s (%s)", rec.MapName, rec.MapID)})
	table.Append([]string{"Author", rec.MapAuthor})
	table.Append([]string{"Players", strconv.Itoa(len(rec.Players))})
	table.Append([]string{"Capper", capper})
	table.Append([]string{"Time", elapsed})
	table.Append([]string{"Jumps", strconv.Itoa(rec.TotalJumps)})
	table.Append([]string{"Quote", quote})
	table.Append([]string{"Played", humanize.Time(time.UnixMilli(rec.Started))})
	table.Render()
}
