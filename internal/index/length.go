package index

import (
	"time"

	"github.com/streamhist/streamhist/internal/history"
)

type songKey struct {
	artist string
	album  string
	track  string
}

// songLengths derives each song's nominal length as its most common played
// duration. Ties go to the longer duration so the result does not depend
// on map iteration order. Durations of zero (instant skips) carry no
// length information and are ignored.
func songLengths(store *history.EventStore) map[songKey]time.Duration {
	observed := make(map[songKey]map[time.Duration]int)
	for e := range store.All() {
		if e.Played <= 0 {
			continue
		}
		key := songKey{e.Artist, e.Album, e.Track}
		durations, ok := observed[key]
		if !ok {
			durations = make(map[time.Duration]int)
			observed[key] = durations
		}
		durations[e.Played]++
	}

	lengths := make(map[songKey]time.Duration, len(observed))
	for key, durations := range observed {
		var best time.Duration
		bestCount := 0
		for dur, count := range durations {
			if count > bestCount || (count == bestCount && dur > best) {
				best = dur
				bestCount = count
			}
		}
		lengths[key] = best
	}
	return lengths
}
