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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamhist/streamhist/internal/analysis"
)

var topArtistsNumber int
var topArtistsByTime bool
var topArtistsCmd = &cobra.Command{
	Use:   "top-artists [from] [to (optional)]",
	Short: "Ranks your most played artists",
	Long:  `Optionally restricted to a date or date range. Date strings look like 'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'.`,
	Args:  cobra.RangeArgs(0, 2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printTopArtists(topArtistsNumber, topArtistsByTime, args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(topArtistsCmd)

	topArtistsCmd.Flags().IntVarP(&topArtistsNumber, "number", "n", 10, "number of results to return")
	topArtistsCmd.Flags().BoolVar(&topArtistsByTime, "time", false, "rank by listening time instead of play count")
}

func printTopArtists(numToReturn int, byTime bool, args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	config := AnalyserConfig{NumToReturn: numToReturn, ByTime: byTime}
	out, err := TopArtistsAnalyzer{}.SetConfig(config).GetResults(lib, start, end)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type TopArtistsAnalyzer struct {
	Config AnalyserConfig
}

func (t TopArtistsAnalyzer) SetConfig(config AnalyserConfig) TopArtistsAnalyzer {
	t.Config = config
	return t
}

func (t TopArtistsAnalyzer) GetName() string {
	return "Top artists"
}

func (t TopArtistsAnalyzer) GetResults(lib *Library, start time.Time, end time.Time) (Analysis, error) {
	windowed := lib.window(start, end)

	entries := analysis.TopArtists(windowed.Index, t.Config.metric(), t.Config.NumToReturn)

	out := Analysis{results: [][]string{{"Artist", "Listens", "Time"}}}
	for _, e := range entries {
		out.results = append(out.results, entryRow(e, false, false))
	}

	totals := windowed.Index.Totals()
	out.summary = fmt.Sprintf("Found %d artists and %d listens over %s\n",
		windowed.Index.ArtistCount(), totals.Plays, describeRange(start, end))
	return out, nil
}
