// Package ingest reads Spotify extended streaming history exports
// ("endsong" files) into an event store.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/streamhist/streamhist/internal/history"
)

// rawEntry mirrors one record of an endsong export. Only the fields we
// consume are declared; the export carries many more. The metadata
// fields are pointers because podcast episodes leave them null.
type rawEntry struct {
	Timestamp string  `json:"ts"`
	MsPlayed  int64   `json:"ms_played"`
	Track     *string `json:"master_metadata_track_name"`
	Album     *string `json:"master_metadata_album_album_name"`
	Artist    *string `json:"master_metadata_album_artist_name"`
}

// Parse decodes one endsong JSON document. Podcast entries, which have
// no track metadata, are skipped. Malformed timestamps and negative
// play durations are treated as file corruption and abort the parse.
func Parse(r io.Reader) ([]history.PlayEvent, error) {
	var raw []rawEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding endsong JSON: %w", err)
	}

	events := make([]history.PlayEvent, 0, len(raw))
	for i, entry := range raw {
		if entry.Track == nil || entry.Album == nil || entry.Artist == nil {
			continue
		}
		if entry.MsPlayed < 0 {
			return nil, fmt.Errorf("entry %d: negative ms_played %d", i, entry.MsPlayed)
		}
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("entry %d: parsing timestamp: %w", i, err)
		}
		// Normalized to UTC so timestamps from different offsets
		// compare and bucket consistently.
		events = append(events, history.PlayEvent{
			Timestamp: ts.UTC().Truncate(time.Second),
			Played:    time.Duration(entry.MsPlayed) * time.Millisecond,
			Track:     *entry.Track,
			Album:     *entry.Album,
			Artist:    *entry.Artist,
		})
	}
	return events, nil
}

// ParseFile decodes a single endsong file from disk.
func ParseFile(path string) ([]history.PlayEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	events, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return events, nil
}

// Discover lists the streaming history files under dir, in name order.
// Spotify has shipped the exports as endsong_N.json and more recently
// as Streaming_History_Audio_*.json.
func Discover(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"endsong*.json", "Streaming_History_Audio*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir parses every export file under dir and returns a frozen
// store holding the merged, deduplicated history.
func LoadDir(dir string) (*history.EventStore, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no streaming history files in %s", dir)
	}
	return LoadFiles(files)
}

// LoadFiles parses the given export files, in order, into a frozen
// store. Entries repeated across files keep their first occurrence.
func LoadFiles(paths []string) (*history.EventStore, error) {
	store := history.NewStore()
	for _, path := range paths {
		events, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		if err := store.Add(events...); err != nil {
			return nil, err
		}
	}
	store.Freeze()
	return store, nil
}
