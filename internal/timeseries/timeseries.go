// Package timeseries buckets the timeline by day, month, or year and emits
// numeric series for external plotting. Series are gap-free: every bucket
// between the first and last in-scope event is present, empty ones with
// zero values, so a plot can render a continuous axis.
package timeseries

import (
	"time"

	"github.com/streamhist/streamhist/internal/analysis"
	"github.com/streamhist/streamhist/internal/history"
)

// Granularity is the fixed width of a bucket.
type Granularity int

const (
	Day Granularity = iota
	Month
	Year
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return "unknown"
}

// Point is one bucket of a series. Share is only meaningful for relative
// series, where it is this bucket's fraction of all plays in the bucket.
type Point struct {
	Start  time.Time
	Plays  int
	Played time.Duration
	Share  float64
}

// Absolute builds the per-bucket raw series for a selection: plays and
// listening time per bucket.
func Absolute(store *history.EventStore, sel analysis.Selection, g Granularity) []Point {
	points, _ := scan(store, sel, g)
	return points
}

// Cumulative builds the running-total series for a selection. Each bucket
// carries the totals of every bucket up to and including itself.
func Cumulative(store *history.EventStore, sel analysis.Selection, g Granularity) []Point {
	points, _ := scan(store, sel, g)
	var plays int
	var played time.Duration
	for i := range points {
		plays += points[i].Plays
		played += points[i].Played
		points[i].Plays = plays
		points[i].Played = played
	}
	return points
}

// Relative builds the share series: each bucket's plays divided by that
// bucket's total plays across the whole timeline. Shares of all entities
// sharing a bucket therefore sum to 1. Buckets with no plays at all get 0.
// This needs a second pass over the store to total each bucket.
func Relative(store *history.EventStore, sel analysis.Selection, g Granularity) []Point {
	points, _ := scan(store, sel, g)
	if len(points) == 0 {
		return points
	}

	totals := make(map[time.Time]int)
	for e := range store.All() {
		totals[bucketStart(e.Timestamp, g)]++
	}
	for i := range points {
		if total := totals[points[i].Start]; total > 0 {
			points[i].Share = float64(points[i].Plays) / float64(total)
		}
	}
	return points
}

// scan walks the stored timeline once and materializes the gap-free
// bucket range for the selection's events. An empty selection yields an
// empty series.
func scan(store *history.EventStore, sel analysis.Selection, g Granularity) ([]Point, bool) {
	perBucket := make(map[time.Time]*Point)
	var first, last time.Time
	seen := false

	for e := range store.Select(sel.Matches) {
		bucket := bucketStart(e.Timestamp, g)
		if !seen {
			first = bucket
			seen = true
		}
		last = bucket

		p, ok := perBucket[bucket]
		if !ok {
			p = &Point{Start: bucket}
			perBucket[bucket] = p
		}
		p.Plays++
		p.Played += e.Played
	}
	if !seen {
		return nil, false
	}

	var points []Point
	for bucket := first; !bucket.After(last); bucket = nextBucket(bucket, g) {
		if p, ok := perBucket[bucket]; ok {
			points = append(points, *p)
		} else {
			points = append(points, Point{Start: bucket})
		}
	}
	return points, true
}

func bucketStart(t time.Time, g Granularity) time.Time {
	switch g {
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case Year:
		return t.AddDate(1, 0, 0)
	case Month:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
