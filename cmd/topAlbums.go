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

var topAlbumsNumber int
var topAlbumsByTime bool
var topAlbumsArtist string
var topAlbumsCmd = &cobra.Command{
	Use:   "top-albums [from] [to (optional)]",
	Short: "Ranks your most played albums",
	Long:  `Optionally restricted to a date or date range. Date strings look like 'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'.`,
	Args:  cobra.RangeArgs(0, 2),
	Run: func(cmd *cobra.Command, args []string) {
		config := AnalyserConfig{
			NumToReturn: topAlbumsNumber,
			ByTime:      topAlbumsByTime,
			Artist:      topAlbumsArtist,
		}
		err := printTopAlbums(config, args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(topAlbumsCmd)

	topAlbumsCmd.Flags().IntVarP(&topAlbumsNumber, "number", "n", 10, "number of results to return")
	topAlbumsCmd.Flags().BoolVar(&topAlbumsByTime, "time", false, "rank by listening time instead of play count")
	topAlbumsCmd.Flags().StringVar(&topAlbumsArtist, "artist", "", "only consider albums by this artist")
}

func printTopAlbums(config AnalyserConfig, args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	out, err := TopAlbumsAnalyzer{}.SetConfig(config).GetResults(lib, start, end)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type TopAlbumsAnalyzer struct {
	Config AnalyserConfig
}

func (t TopAlbumsAnalyzer) SetConfig(config AnalyserConfig) TopAlbumsAnalyzer {
	t.Config = config
	return t
}

func (t TopAlbumsAnalyzer) GetName() string {
	return "Top albums"
}

func (t TopAlbumsAnalyzer) GetResults(lib *Library, start time.Time, end time.Time) (Analysis, error) {
	windowed := lib.window(start, end)

	var entries []analysis.Entry
	if t.Config.Artist != "" {
		var err error
		entries, err = analysis.ArtistTopAlbums(windowed.Index, t.Config.Artist, t.Config.metric(), t.Config.NumToReturn)
		if err != nil {
			return Analysis{}, fmt.Errorf("top albums for %q: %w", t.Config.Artist, err)
		}
	} else {
		entries = analysis.TopAlbums(windowed.Index, t.Config.metric(), t.Config.NumToReturn)
	}

	out := Analysis{results: [][]string{{"Album", "Artist", "Listens", "Time"}}}
	for _, e := range entries {
		out.results = append(out.results, entryRow(e, true, false))
	}

	totals := windowed.Index.Totals()
	out.summary = fmt.Sprintf("Found %d listens over %s\n", totals.Plays, describeRange(start, end))
	return out, nil
}
