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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamhist/streamhist/internal/analysis"
)

var summaryTrack string
var summaryFrom string
var summaryTo string
var summaryCmd = &cobra.Command{
	Use:   "summary <artist> [album] [track]",
	Short: "Shows everything known about an artist, album or song",
	Long: `Play counts, listening time, share of all listening, first and last
listens. Artist and album names are matched exactly. Use --track to
summarize a song across all the albums it appears on.`,
	Args: cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		err := printSummary(args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVar(&summaryTrack, "track", "", "summarize this song across all albums")
	summaryCmd.Flags().StringVar(&summaryFrom, "from", "", "start of the date range (yyyy, yyyy-mm, or yyyy-mm-dd)")
	summaryCmd.Flags().StringVar(&summaryTo, "to", "", "end of the date range, exclusive")
}

func selectionFromArgs(args []string, track string) (analysis.Selection, error) {
	if track != "" {
		if len(args) != 1 {
			return analysis.Selection{}, fmt.Errorf("--track takes an artist only")
		}
		return analysis.ForSongAcrossAlbums(args[0], track), nil
	}
	switch len(args) {
	case 1:
		return analysis.ForArtist(args[0]), nil
	case 2:
		return analysis.ForAlbum(args[0], args[1]), nil
	default:
		return analysis.ForSong(args[0], args[1], args[2]), nil
	}
}

// parseFlagRange turns the --from/--to flags into a half-open range.
// Either side may be empty, leaving that side of the range open.
func parseFlagRange(fromString, toString string) (start time.Time, end time.Time, err error) {
	if fromString != "" {
		from, err := parseSingleDatestring(fromString)
		if err != nil {
			return start, end, err
		}
		start = from.Date
	}
	if toString != "" {
		to, err := parseSingleDatestring(toString)
		if err != nil {
			return start, end, err
		}
		end = to.Date
	}
	return start, end, nil
}

func printSummary(args []string) error {
	sel, err := selectionFromArgs(args, summaryTrack)
	if err != nil {
		return err
	}
	start, end, err := parseFlagRange(summaryFrom, summaryTo)
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	out, err := summarize(lib.windowOpenEnded(start, end), sel)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func summarize(lib *Library, sel analysis.Selection) (Analysis, error) {
	stats, err := analysis.Totals(lib.Index, sel)
	if err != nil {
		return Analysis{}, fmt.Errorf("summarizing %s: %w", sel, err)
	}
	plays, err := analysis.PercentOfPlays(lib.Index, sel)
	if err != nil {
		return Analysis{}, err
	}
	played, err := analysis.PercentOfTime(lib.Index, sel)
	if err != nil {
		return Analysis{}, err
	}

	out := Analysis{results: [][]string{{"", sel.String()}}}
	add := func(label, value string) {
		out.results = append(out.results, []string{label, value})
	}
	add("Listens", strconv.Itoa(stats.Plays))
	add("Time", formatDuration(stats.Played))
	add("% of listens", fmt.Sprintf("%.2f%%", plays))
	add("% of time", fmt.Sprintf("%.2f%%", played))
	add("First listen", stats.FirstListen.Format(dateFormat))
	add("Last listen", stats.LastListen.Format(dateFormat))

	if sel.Aspect == analysis.AspectArtist {
		rank, err := analysis.ArtistRank(lib.Index, sel.Artist, analysis.ByPlays)
		if err != nil {
			return Analysis{}, err
		}
		add("Rank by listens", fmt.Sprintf("#%d of %d", rank, lib.Index.ArtistCount()))
	}

	if sel.Aspect == analysis.AspectSong {
		song, err := lib.Index.Song(sel.Artist, sel.Album, sel.Track)
		if err != nil {
			return Analysis{}, err
		}
		add("Length", formatSongLength(song.Length))
		add("Full listens", strconv.Itoa(song.FullListens))
		add("90% listens", strconv.Itoa(song.NearFullListens))
	}

	return out, nil
}

func formatSongLength(d time.Duration) string {
	minutes := int(d / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
