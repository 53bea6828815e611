package analysis

import (
	"container/heap"
	"sort"
	"time"

	"github.com/streamhist/streamhist/internal/index"
)

// Metric selects what a ranking is ordered by.
type Metric int

const (
	ByPlays Metric = iota
	ByTime
)

// Entry is one row of a ranking. Artist and Album are filled as far as the
// ranked aspect has them; for across-albums song entries, Album is the
// most-played album the title appears on.
type Entry struct {
	Artist      string
	Album       string
	Name        string
	Plays       int
	Played      time.Duration
	FirstListen time.Time
}

// ranksBefore is the single total order behind every ranking: metric
// descending, then earlier first listen, then names. Two runs over the
// same data therefore always produce byte-identical rankings.
func ranksBefore(a, b Entry, metric Metric) bool {
	switch metric {
	case ByTime:
		if a.Played != b.Played {
			return a.Played > b.Played
		}
	default:
		if a.Plays != b.Plays {
			return a.Plays > b.Plays
		}
	}
	if !a.FirstListen.Equal(b.FirstListen) {
		return a.FirstListen.Before(b.FirstListen)
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.Artist != b.Artist {
		return a.Artist < b.Artist
	}
	return a.Album < b.Album
}

// TopArtists ranks all artists and returns at most n entries.
func TopArtists(ix *index.Index, metric Metric, n int) []Entry {
	var candidates []Entry
	for _, ar := range ix.Artists() {
		candidates = append(candidates, artistEntry(ar))
	}
	return topN(candidates, metric, n)
}

// TopAlbums ranks every album in the dataset.
func TopAlbums(ix *index.Index, metric Metric, n int) []Entry {
	var candidates []Entry
	for _, ar := range ix.Artists() {
		for _, al := range ar.Albums() {
			candidates = append(candidates, albumEntry(al))
		}
	}
	return topN(candidates, metric, n)
}

// TopSongs ranks every song in the dataset. With acrossAlbums set, same-
// titled songs of one artist are summed and shown once.
func TopSongs(ix *index.Index, metric Metric, n int, acrossAlbums bool) []Entry {
	var candidates []Entry
	for _, ar := range ix.Artists() {
		candidates = append(candidates, artistSongEntries(ar, acrossAlbums)...)
	}
	return topN(candidates, metric, n)
}

// ArtistTopAlbums ranks one artist's albums.
func ArtistTopAlbums(ix *index.Index, artist string, metric Metric, n int) ([]Entry, error) {
	ar, err := ix.Artist(artist)
	if err != nil {
		return nil, err
	}
	var candidates []Entry
	for _, al := range ar.Albums() {
		candidates = append(candidates, albumEntry(al))
	}
	return topN(candidates, metric, n), nil
}

// ArtistTopSongs ranks one artist's songs, optionally summing album
// versions of the same title.
func ArtistTopSongs(ix *index.Index, artist string, metric Metric, n int, acrossAlbums bool) ([]Entry, error) {
	ar, err := ix.Artist(artist)
	if err != nil {
		return nil, err
	}
	return topN(artistSongEntries(ar, acrossAlbums), metric, n), nil
}

func artistEntry(ar *index.Artist) Entry {
	return Entry{
		Artist:      ar.Name,
		Name:        ar.Name,
		Plays:       ar.Plays,
		Played:      ar.Played,
		FirstListen: ar.FirstListen,
	}
}

func albumEntry(al *index.Album) Entry {
	return Entry{
		Artist:      al.Artist,
		Name:        al.Name,
		Plays:       al.Plays,
		Played:      al.Played,
		FirstListen: al.FirstListen,
	}
}

func artistSongEntries(ar *index.Artist, acrossAlbums bool) []Entry {
	if !acrossAlbums {
		var entries []Entry
		for _, al := range ar.Albums() {
			for _, so := range al.Songs() {
				entries = append(entries, Entry{
					Artist:      so.Artist,
					Album:       so.Album,
					Name:        so.Name,
					Plays:       so.Plays,
					Played:      so.Played,
					FirstListen: so.FirstListen,
				})
			}
		}
		return entries
	}

	// Sum the album versions of each title. Albums() is name-sorted, so
	// the attributed album is deterministic: the first-seen among the
	// most-played versions.
	summed := make(map[string]*Entry)
	versionPlays := make(map[string]int)
	var order []string
	for _, al := range ar.Albums() {
		for _, so := range al.Songs() {
			entry, ok := summed[so.Name]
			if !ok {
				entry = &Entry{Artist: so.Artist, Album: so.Album, Name: so.Name, FirstListen: so.FirstListen}
				summed[so.Name] = entry
				order = append(order, so.Name)
			}
			entry.Plays += so.Plays
			entry.Played += so.Played
			if so.FirstListen.Before(entry.FirstListen) {
				entry.FirstListen = so.FirstListen
			}
			if so.Plays > versionPlays[so.Name] {
				versionPlays[so.Name] = so.Plays
				entry.Album = so.Album
			}
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, name := range order {
		entries = append(entries, *summed[name])
	}
	return entries
}

// topN selects the n best-ranked entries. For small n relative to the
// candidate set it keeps a bounded min-heap instead of sorting everything;
// the heap root is the worst entry currently kept.
func topN(candidates []Entry, metric Metric, n int) []Entry {
	if n <= 0 {
		return nil
	}
	if n >= len(candidates) || n*4 >= len(candidates) {
		sorted := make([]Entry, len(candidates))
		copy(sorted, candidates)
		sort.SliceStable(sorted, func(i, j int) bool {
			return ranksBefore(sorted[i], sorted[j], metric)
		})
		if len(sorted) > n {
			sorted = sorted[:n]
		}
		return sorted
	}

	h := &entryHeap{metric: metric}
	for _, e := range candidates {
		if h.Len() < n {
			heap.Push(h, e)
			continue
		}
		if ranksBefore(e, h.entries[0], metric) {
			h.entries[0] = e
			heap.Fix(h, 0)
		}
	}

	result := make([]Entry, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Entry)
	}
	return result
}

// entryHeap is a min-heap under the ranking order: the root is the entry
// that ranks last among those kept.
type entryHeap struct {
	entries []Entry
	metric  Metric
}

func (h *entryHeap) Len() int { return len(h.entries) }

func (h *entryHeap) Less(i, j int) bool {
	return ranksBefore(h.entries[j], h.entries[i], h.metric)
}

func (h *entryHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *entryHeap) Push(x any) {
	h.entries = append(h.entries, x.(Entry))
}

func (h *entryHeap) Pop() any {
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last
}
