package analysis

import (
	"fmt"
	"time"

	"github.com/streamhist/streamhist/internal/history"
	"github.com/streamhist/streamhist/internal/index"
)

// Totals returns the aggregate counters for a selection, read off the
// index nodes that already maintain them. The across-albums aspect is a
// reduction over the per-album song versions, so it costs time
// proportional to the number of albums carrying the title, not the number
// of raw events.
func Totals(ix *index.Index, sel Selection) (index.Stats, error) {
	switch sel.Aspect {
	case AspectArtist:
		ar, err := ix.Artist(sel.Artist)
		if err != nil {
			return index.Stats{}, err
		}
		return ar.Stats, nil

	case AspectAlbum:
		al, err := ix.Album(sel.Artist, sel.Album)
		if err != nil {
			return index.Stats{}, err
		}
		return al.Stats, nil

	case AspectSong:
		so, err := ix.Song(sel.Artist, sel.Album, sel.Track)
		if err != nil {
			return index.Stats{}, err
		}
		return so.Stats, nil

	case AspectSongAcrossAlbums:
		versions, err := ix.SongVersions(sel.Artist, sel.Track)
		if err != nil {
			return index.Stats{}, err
		}
		var sum index.Stats
		for _, so := range versions {
			sum.Plays += so.Plays
			sum.Played += so.Played
			if sum.FirstListen.IsZero() || so.FirstListen.Before(sum.FirstListen) {
				sum.FirstListen = so.FirstListen
			}
			if so.LastListen.After(sum.LastListen) {
				sum.LastListen = so.LastListen
			}
		}
		return sum, nil
	}
	return index.Stats{}, fmt.Errorf("unknown aspect %d", sel.Aspect)
}

// TotalsBetween aggregates a selection restricted to start <= t < end.
// The index counters are windowless by construction, so this falls back
// to a filtered scan of the stored timeline. An empty or non-matching
// window yields zero counters, not an error.
func TotalsBetween(store *history.EventStore, sel Selection, start, end time.Time) index.Stats {
	var sum index.Stats
	for _, e := range store.Between(start, end) {
		if !sel.Matches(e) {
			continue
		}
		if sum.Plays == 0 {
			sum.FirstListen = e.Timestamp
		}
		sum.Plays++
		sum.Played += e.Played
		sum.LastListen = e.Timestamp
	}
	return sum
}

// PercentOfPlays is the selection's share of all plays, in percent.
// An empty timeline yields 0, never a division by zero.
func PercentOfPlays(ix *index.Index, sel Selection) (float64, error) {
	stats, err := Totals(ix, sel)
	if err != nil {
		return 0, err
	}
	total := ix.Totals().Plays
	if total == 0 {
		return 0, nil
	}
	return 100 * float64(stats.Plays) / float64(total), nil
}

// PercentOfTime is the selection's share of all listening time, in percent.
func PercentOfTime(ix *index.Index, sel Selection) (float64, error) {
	stats, err := Totals(ix, sel)
	if err != nil {
		return 0, err
	}
	total := ix.Totals().Played
	if total == 0 {
		return 0, nil
	}
	return 100 * float64(stats.Played) / float64(total), nil
}

// ArtistRank is the artist's 1-based position among all artists under the
// given metric, descending. Ties resolve like rankings do: earlier first
// listen, then name.
func ArtistRank(ix *index.Index, artist string, metric Metric) (int, error) {
	target, err := ix.Artist(artist)
	if err != nil {
		return 0, err
	}
	targetEntry := artistEntry(target)

	rank := 1
	for _, ar := range ix.Artists() {
		if ar.Name == artist {
			continue
		}
		if ranksBefore(artistEntry(ar), targetEntry, metric) {
			rank++
		}
	}
	return rank, nil
}
