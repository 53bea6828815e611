// Package index builds the Artist -> Album -> Song hierarchy from a frozen
// event store. The index is rebuilt whole whenever the store changes and is
// read-only afterwards, so it can be shared between concurrent readers
// without locking.
package index

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/streamhist/streamhist/internal/history"
)

// ErrNotFound is wrapped by all identity lookups for names that do not
// exist in the index.
var ErrNotFound = errors.New("not found")

// DefaultFullListenFallback is the full-listen threshold used for songs
// whose nominal length could not be derived from the data.
const DefaultFullListenFallback = 4 * time.Minute

// Stats are the aggregate counters carried by every node in the hierarchy.
// They are derived state: always equal to folding over the exact events
// that belong to the node.
type Stats struct {
	Plays       int
	Played      time.Duration
	FirstListen time.Time
	LastListen  time.Time
}

// fold accumulates one event. Events arrive in timestamp order, so first
// and last listen reduce to the first and most recent event folded in.
func (st *Stats) fold(e history.PlayEvent) {
	if st.Plays == 0 {
		st.FirstListen = e.Timestamp
	}
	st.Plays++
	st.Played += e.Played
	st.LastListen = e.Timestamp
}

// Song is one track scoped to the album version it appears on. The same
// title on two albums of one artist is two distinct Songs.
type Song struct {
	Name   string
	Album  string
	Artist string
	Stats

	// Length is the song's nominal duration, taken as the most common
	// played duration observed for it. Skipping around in a track can push
	// single plays past the real length, so the mode is a better estimate
	// than the maximum.
	Length time.Duration

	// FullListens counts plays where the whole song was heard.
	FullListens int
	// NearFullListens counts plays of at least 90% of the song.
	NearFullListens int
}

// Album is identified by (artist, album name); album names are assumed
// unique within an artist.
type Album struct {
	Name   string
	Artist string
	Stats

	songs map[string]*Song
}

// Song looks up a track on this album by exact name.
func (al *Album) Song(name string) (*Song, error) {
	so, ok := al.songs[name]
	if !ok {
		return nil, fmt.Errorf("song %q on %q by %q: %w", name, al.Name, al.Artist, ErrNotFound)
	}
	return so, nil
}

// Songs lists the album's songs sorted by name.
func (al *Album) Songs() []*Song {
	songs := make([]*Song, 0, len(al.songs))
	for _, so := range al.songs {
		songs = append(songs, so)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].Name < songs[j].Name })
	return songs
}

// Artist is identified by display name. Two real-world artists sharing a
// name cannot be told apart from an export file; that is an accepted
// limitation, not something the index tries to fix.
type Artist struct {
	Name string
	Stats

	albums map[string]*Album
}

// Album looks up one of the artist's albums by exact name.
func (ar *Artist) Album(name string) (*Album, error) {
	al, ok := ar.albums[name]
	if !ok {
		return nil, fmt.Errorf("album %q by %q: %w", name, ar.Name, ErrNotFound)
	}
	return al, nil
}

// Albums lists the artist's albums sorted by name.
func (ar *Artist) Albums() []*Album {
	albums := make([]*Album, 0, len(ar.albums))
	for _, al := range ar.albums {
		albums = append(albums, al)
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums
}

// Options control index construction.
type Options struct {
	// FullListenFallback is the full-listen threshold for songs with no
	// derivable length. Zero means DefaultFullListenFallback.
	FullListenFallback time.Duration
}

// Index is the queryable hierarchy. It is immutable once built.
type Index struct {
	artists map[string]*Artist
	total   Stats
}

// Build constructs the index from a frozen store with default options.
func Build(store *history.EventStore) *Index {
	return BuildWithOptions(store, Options{})
}

// BuildWithOptions folds every event into exactly one song and,
// transitively, that song's album and artist. Construction is
// deterministic: the same store always yields identical aggregates.
func BuildWithOptions(store *history.EventStore, opts Options) *Index {
	fallback := opts.FullListenFallback
	if fallback == 0 {
		fallback = DefaultFullListenFallback
	}

	lengths := songLengths(store)

	ix := &Index{artists: make(map[string]*Artist)}
	for e := range store.All() {
		ar, ok := ix.artists[e.Artist]
		if !ok {
			ar = &Artist{Name: e.Artist, albums: make(map[string]*Album)}
			ix.artists[e.Artist] = ar
		}
		al, ok := ar.albums[e.Album]
		if !ok {
			al = &Album{Name: e.Album, Artist: e.Artist, songs: make(map[string]*Song)}
			ar.albums[e.Album] = al
		}
		so, ok := al.songs[e.Track]
		if !ok {
			so = &Song{
				Name:   e.Track,
				Album:  e.Album,
				Artist: e.Artist,
				Length: lengths[songKey{e.Artist, e.Album, e.Track}],
			}
			al.songs[e.Track] = so
		}

		so.fold(e)
		al.fold(e)
		ar.fold(e)
		ix.total.fold(e)

		full := so.Length
		if full <= 0 {
			full = fallback
		}
		if e.Played >= full {
			so.FullListens++
		}
		if e.Played*10 >= full*9 {
			so.NearFullListens++
		}
	}
	return ix
}

// Artist looks up an artist by exact name.
func (ix *Index) Artist(name string) (*Artist, error) {
	ar, ok := ix.artists[name]
	if !ok {
		return nil, fmt.Errorf("artist %q: %w", name, ErrNotFound)
	}
	return ar, nil
}

// Album looks up an album by exact (artist, album) identity.
func (ix *Index) Album(artist, album string) (*Album, error) {
	ar, err := ix.Artist(artist)
	if err != nil {
		return nil, err
	}
	return ar.Album(album)
}

// Song looks up a song by exact (artist, album, track) identity.
func (ix *Index) Song(artist, album, track string) (*Song, error) {
	al, err := ix.Album(artist, album)
	if err != nil {
		return nil, err
	}
	return al.Song(track)
}

// SongVersions returns every album-scoped instance of the given track name
// for one artist, sorted by album name. Used for the summed-across-albums
// view. It fails with ErrNotFound when no album has the track.
func (ix *Index) SongVersions(artist, track string) ([]*Song, error) {
	ar, err := ix.Artist(artist)
	if err != nil {
		return nil, err
	}
	var versions []*Song
	for _, al := range ar.Albums() {
		if so, ok := al.songs[track]; ok {
			versions = append(versions, so)
		}
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("song %q by %q: %w", track, artist, ErrNotFound)
	}
	return versions, nil
}

// Artists lists all artists sorted by name.
func (ix *Index) Artists() []*Artist {
	artists := make([]*Artist, 0, len(ix.artists))
	for _, ar := range ix.artists {
		artists = append(artists, ar)
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].Name < artists[j].Name })
	return artists
}

// ArtistCount is the number of distinct artists.
func (ix *Index) ArtistCount() int {
	return len(ix.artists)
}

// Totals are the grand-total counters across the whole timeline.
func (ix *Index) Totals() Stats {
	return ix.total
}
