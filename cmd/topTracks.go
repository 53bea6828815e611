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

var topTracksNumber int
var topTracksByTime bool
var topTracksArtist string
var topTracksAcrossAlbums bool
var topTracksCmd = &cobra.Command{
	Use:   "top-tracks [from] [to (optional)]",
	Short: "Ranks your most played songs",
	Long: `Optionally restricted to a date or date range. Date strings look like
'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'. With --across-albums, plays of the
same song on different albums count together.`,
	Args: cobra.RangeArgs(0, 2),
	Run: func(cmd *cobra.Command, args []string) {
		config := AnalyserConfig{
			NumToReturn:  topTracksNumber,
			ByTime:       topTracksByTime,
			Artist:       topTracksArtist,
			AcrossAlbums: topTracksAcrossAlbums,
		}
		err := printTopTracks(config, args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(topTracksCmd)

	topTracksCmd.Flags().IntVarP(&topTracksNumber, "number", "n", 10, "number of results to return")
	topTracksCmd.Flags().BoolVar(&topTracksByTime, "time", false, "rank by listening time instead of play count")
	topTracksCmd.Flags().StringVar(&topTracksArtist, "artist", "", "only consider songs by this artist")
	topTracksCmd.Flags().BoolVar(&topTracksAcrossAlbums, "across-albums", false, "merge song versions from different albums")
}

func printTopTracks(config AnalyserConfig, args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	out, err := TopTracksAnalyzer{}.SetConfig(config).GetResults(lib, start, end)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type TopTracksAnalyzer struct {
	Config AnalyserConfig
}

func (t TopTracksAnalyzer) SetConfig(config AnalyserConfig) TopTracksAnalyzer {
	t.Config = config
	return t
}

func (t TopTracksAnalyzer) GetName() string {
	return "Top tracks"
}

func (t TopTracksAnalyzer) GetResults(lib *Library, start time.Time, end time.Time) (Analysis, error) {
	windowed := lib.window(start, end)

	var entries []analysis.Entry
	if t.Config.Artist != "" {
		var err error
		entries, err = analysis.ArtistTopSongs(windowed.Index, t.Config.Artist, t.Config.metric(), t.Config.NumToReturn, t.Config.AcrossAlbums)
		if err != nil {
			return Analysis{}, fmt.Errorf("top tracks for %q: %w", t.Config.Artist, err)
		}
	} else {
		entries = analysis.TopSongs(windowed.Index, t.Config.metric(), t.Config.NumToReturn, t.Config.AcrossAlbums)
	}

	out := Analysis{results: [][]string{{"Track", "Artist", "Album", "Listens", "Time"}}}
	for _, e := range entries {
		out.results = append(out.results, entryRow(e, true, true))
	}

	totals := windowed.Index.Totals()
	out.summary = fmt.Sprintf("Found %d listens over %s\n", totals.Plays, describeRange(start, end))
	return out, nil
}
