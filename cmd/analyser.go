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
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/streamhist/streamhist/internal/analysis"
)

type Analysis struct {
	results [][]string
	summary string
}

type AnalyserConfig struct {
	// Number of results to return. Zero returns nothing.
	NumToReturn int

	// Rank by listening time instead of play counts.
	ByTime bool

	// Restrict results to this artist. Empty means everyone.
	Artist string

	// Merge song versions that appear on several albums.
	AcrossAlbums bool
}

func (c AnalyserConfig) metric() analysis.Metric {
	if c.ByTime {
		return analysis.ByTime
	}
	return analysis.ByPlays
}

type Analyser interface {
	GetResults(lib *Library, start time.Time, end time.Time) (Analysis, error)

	GetName() string
}

func (a Analysis) String() string {
	out := new(bytes.Buffer)
	table := tablewriter.NewWriter(out)
	table.Header(a.results[0])
	for _, row := range a.results[1:] {
		if err := table.Append(row); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Sprintf("Error rendering table: %v", err)
	}
	fmt.Fprintf(out, "%s\n", a.summary)
	return out.String()
}

func entryRow(e analysis.Entry, withArtist bool, withAlbum bool) []string {
	row := make([]string, 0, 4)
	row = append(row, e.Name)
	if withArtist {
		row = append(row, e.Artist)
	}
	if withAlbum {
		row = append(row, e.Album)
	}
	return append(row, strconv.Itoa(e.Plays), formatDuration(e.Played))
}
