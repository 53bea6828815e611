package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/streamhist/streamhist/internal/analysis"
	"github.com/streamhist/streamhist/internal/history"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func playAt(ts time.Time, artist string) history.PlayEvent {
	return history.PlayEvent{
		Timestamp: ts,
		Played:    3 * time.Minute,
		Track:     "s",
		Album:     "al",
		Artist:    artist,
	}
}

func buildStore(t *testing.T, events ...history.PlayEvent) *history.EventStore {
	t.Helper()
	s := history.NewStore()
	if err := s.Add(events...); err != nil {
		t.Fatalf("adding events: %v", err)
	}
	s.Freeze()
	return s
}

func TestAbsoluteMonthlyGapFree(t *testing.T) {
	store := buildStore(t,
		playAt(day(2023, time.January, 5), "A"),
		playAt(day(2023, time.January, 20), "A"),
		// February and March have no plays at all.
		playAt(day(2023, time.April, 1), "A"),
	)

	points := Absolute(store, analysis.ForArtist("A"), Month)
	if len(points) != 4 {
		t.Fatalf("got %d buckets, want 4 (Jan through Apr, gaps included)", len(points))
	}
	wantStarts := []time.Time{
		day(2023, time.January, 1), day(2023, time.February, 1),
		day(2023, time.March, 1), day(2023, time.April, 1),
	}
	wantPlays := []int{2, 0, 0, 1}
	for i, p := range points {
		if !p.Start.Equal(wantStarts[i]) {
			t.Errorf("bucket %d starts %v, want %v", i, p.Start, wantStarts[i])
		}
		if p.Plays != wantPlays[i] {
			t.Errorf("bucket %d plays = %d, want %d", i, p.Plays, wantPlays[i])
		}
	}
}

func TestAbsoluteDailyAndYearly(t *testing.T) {
	store := buildStore(t,
		playAt(day(2022, time.December, 31), "A"),
		playAt(day(2023, time.January, 1), "A"),
	)

	if points := Absolute(store, analysis.ForArtist("A"), Day); len(points) != 2 {
		t.Errorf("daily buckets = %d, want 2", len(points))
	}
	points := Absolute(store, analysis.ForArtist("A"), Year)
	if len(points) != 2 {
		t.Fatalf("yearly buckets = %d, want 2", len(points))
	}
	if !points[0].Start.Equal(day(2022, time.January, 1)) {
		t.Errorf("first yearly bucket = %v", points[0].Start)
	}
}

func TestCumulativeRuns(t *testing.T) {
	store := buildStore(t,
		playAt(day(2023, time.January, 5), "A"),
		playAt(day(2023, time.March, 5), "A"),
		playAt(day(2023, time.March, 6), "A"),
	)
	points := Cumulative(store, analysis.ForArtist("A"), Month)
	wantPlays := []int{1, 1, 3}
	for i, p := range points {
		if p.Plays != wantPlays[i] {
			t.Errorf("bucket %d cumulative plays = %d, want %d", i, p.Plays, wantPlays[i])
		}
	}
	if points[2].Played != 9*time.Minute {
		t.Errorf("final cumulative time = %v, want 9m", points[2].Played)
	}
}

func TestRelativeSharesSumToOne(t *testing.T) {
	store := buildStore(t,
		playAt(day(2023, time.January, 1), "A"),
		playAt(day(2023, time.January, 2), "A"),
		playAt(day(2023, time.January, 3), "B"),
		playAt(day(2023, time.February, 1), "A"),
		playAt(day(2023, time.February, 2), "B"),
		playAt(day(2023, time.February, 3), "B"),
	)

	a := Relative(store, analysis.ForArtist("A"), Month)
	b := Relative(store, analysis.ForArtist("B"), Month)

	if math.Abs(a[0].Share-2.0/3.0) > 1e-9 {
		t.Errorf("A January share = %v, want 2/3", a[0].Share)
	}
	for i := range a {
		sum := a[i].Share + b[i].Share
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("bucket %d shares sum to %v, want 1.0", i, sum)
		}
	}
}

func TestRelativeEmptyBucketShareIsZero(t *testing.T) {
	store := buildStore(t,
		playAt(day(2023, time.January, 1), "A"),
		playAt(day(2023, time.March, 1), "A"),
	)
	points := Relative(store, analysis.ForArtist("A"), Month)
	if len(points) != 3 {
		t.Fatalf("buckets = %d, want 3", len(points))
	}
	if points[1].Share != 0 {
		t.Errorf("February share = %v, want 0 (no plays at all)", points[1].Share)
	}
}

func TestEmptySelectionYieldsEmptySeries(t *testing.T) {
	store := buildStore(t, playAt(day(2023, time.January, 1), "A"))
	if points := Absolute(store, analysis.ForArtist("Nobody"), Month); len(points) != 0 {
		t.Errorf("got %d buckets for a non-matching selection, want 0", len(points))
	}
	if points := Relative(buildStore(t), analysis.ForArtist("A"), Day); len(points) != 0 {
		t.Errorf("got %d buckets from an empty store, want 0", len(points))
	}
}
