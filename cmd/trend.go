/*
Copyright 2026 The streamhist Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamhist/streamhist/internal/analysis"
	"github.com/streamhist/streamhist/internal/timeseries"
)

var trendBucket string
var trendMode string
var trendTrack string
var trendCSV bool
var trendCmd = &cobra.Command{
	Use:   "trend <artist> [album] [track]",
	Short: "Shows plays over time for an artist, album or song",
	Long: `Buckets the listening history by day, month or year and reports plays
per bucket. Modes: absolute (per bucket), cumulative (running total),
relative (share of all plays in the bucket).`,
	Args: cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		err := printTrend(args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)

	trendCmd.Flags().StringVar(&trendBucket, "bucket", "month", "bucket size: day, month, or year")
	trendCmd.Flags().StringVar(&trendMode, "mode", "absolute", "absolute, cumulative, or relative")
	trendCmd.Flags().StringVar(&trendTrack, "track", "", "trend this song across all albums")
	trendCmd.Flags().BoolVar(&trendCSV, "csv", false, "write CSV instead of a table")
}

func printTrend(args []string) error {
	sel, err := selectionFromArgs(args, trendTrack)
	if err != nil {
		return err
	}
	granularity, err := parseGranularity(trendBucket)
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	points, err := buildTrend(lib, sel, granularity, trendMode)
	if err != nil {
		return err
	}

	if trendCSV {
		return writeTrendCSV(os.Stdout, points)
	}

	out := Analysis{results: [][]string{{"Bucket", "Listens", "Time"}}}
	for _, p := range points {
		row := []string{formatBucket(p.Start, granularity), strconv.Itoa(p.Plays), formatDuration(p.Played)}
		if trendMode == "relative" {
			row[2] = fmt.Sprintf("%.2f%%", 100*p.Share)
		}
		out.results = append(out.results, row)
	}
	if trendMode == "relative" {
		out.results[0][2] = "Share"
	}
	out.summary = fmt.Sprintf("%s by %s for %s\n", trendMode, granularity, sel)
	fmt.Println(out)
	return nil
}

func buildTrend(lib *Library, sel analysis.Selection, g timeseries.Granularity, mode string) ([]timeseries.Point, error) {
	switch mode {
	case "absolute":
		return timeseries.Absolute(lib.Store, sel, g), nil
	case "cumulative":
		return timeseries.Cumulative(lib.Store, sel, g), nil
	case "relative":
		return timeseries.Relative(lib.Store, sel, g), nil
	default:
		return nil, fmt.Errorf("unknown mode %q, expected absolute, cumulative, or relative", mode)
	}
}

func parseGranularity(name string) (timeseries.Granularity, error) {
	switch name {
	case "day":
		return timeseries.Day, nil
	case "month":
		return timeseries.Month, nil
	case "year":
		return timeseries.Year, nil
	default:
		return 0, fmt.Errorf("unknown bucket size %q, expected day, month, or year", name)
	}
}

func formatBucket(start time.Time, g timeseries.Granularity) string {
	switch g {
	case timeseries.Day:
		return start.Format("2006-01-02")
	case timeseries.Month:
		return start.Format("2006-01")
	default:
		return start.Format("2006")
	}
}

func writeTrendCSV(out io.Writer, points []timeseries.Point) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"bucket", "plays", "ms_played", "share"}); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	for _, p := range points {
		record := []string{
			p.Start.Format("2006-01-02"),
			strconv.Itoa(p.Plays),
			strconv.FormatInt(p.Played.Milliseconds(), 10),
			strconv.FormatFloat(p.Share, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
