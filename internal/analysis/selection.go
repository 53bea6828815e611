// Package analysis answers aggregate queries over a built index: totals,
// shares of the whole, rank positions, and top-N lists.
package analysis

import (
	"fmt"

	"github.com/streamhist/streamhist/internal/history"
)

// Aspect is the granularity of a query. The four kinds are fixed and
// handled exhaustively everywhere a Selection is consumed.
type Aspect int

const (
	AspectArtist Aspect = iota
	AspectAlbum
	AspectSong
	AspectSongAcrossAlbums
)

// Selection names the entity a query is about. Only the identity fields
// relevant to the aspect are set.
type Selection struct {
	Aspect Aspect
	Artist string
	Album  string
	Track  string
}

func ForArtist(artist string) Selection {
	return Selection{Aspect: AspectArtist, Artist: artist}
}

func ForAlbum(artist, album string) Selection {
	return Selection{Aspect: AspectAlbum, Artist: artist, Album: album}
}

func ForSong(artist, album, track string) Selection {
	return Selection{Aspect: AspectSong, Artist: artist, Album: album, Track: track}
}

// ForSongAcrossAlbums selects every album version of the track at once.
func ForSongAcrossAlbums(artist, track string) Selection {
	return Selection{Aspect: AspectSongAcrossAlbums, Artist: artist, Track: track}
}

// Matches reports whether an event belongs to the selection. It is the
// predicate handed to EventStore scans.
func (sel Selection) Matches(e history.PlayEvent) bool {
	switch sel.Aspect {
	case AspectArtist:
		return e.Artist == sel.Artist
	case AspectAlbum:
		return e.Artist == sel.Artist && e.Album == sel.Album
	case AspectSong:
		return e.Artist == sel.Artist && e.Album == sel.Album && e.Track == sel.Track
	case AspectSongAcrossAlbums:
		return e.Artist == sel.Artist && e.Track == sel.Track
	}
	return false
}

func (sel Selection) String() string {
	switch sel.Aspect {
	case AspectArtist:
		return sel.Artist
	case AspectAlbum:
		return fmt.Sprintf("%s - %s", sel.Artist, sel.Album)
	case AspectSong:
		return fmt.Sprintf("%s - %s (%s)", sel.Artist, sel.Track, sel.Album)
	case AspectSongAcrossAlbums:
		return fmt.Sprintf("%s - %s (all albums)", sel.Artist, sel.Track)
	}
	return ""
}
