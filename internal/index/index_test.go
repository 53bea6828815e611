package index

import (
	"errors"
	"testing"
	"time"

	"github.com/streamhist/streamhist/internal/history"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
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

func play(sec int64, track, album, artist string, ms int64) history.PlayEvent {
	return history.PlayEvent{
		Timestamp: at(sec),
		Played:    time.Duration(ms) * time.Millisecond,
		Track:     track,
		Album:     album,
		Artist:    artist,
	}
}

func TestBuildScenario(t *testing.T) {
	// The duplicate-timestamp Crazy Train entry must be discarded before
	// the index ever sees it.
	store := buildStore(t,
		play(100, "Bark at the Moon", "Bark at the Moon", "Ozzy Osbourne", 180000),
		play(100, "Crazy Train", "Blizzard of Ozz", "Ozzy Osbourne", 150000),
		play(200, "Bark at the Moon", "Bark at the Moon", "Ozzy Osbourne", 180000),
	)
	ix := Build(store)

	ar, err := ix.Artist("Ozzy Osbourne")
	if err != nil {
		t.Fatalf("Artist: %v", err)
	}
	if ar.Plays != 2 {
		t.Errorf("artist plays = %d, want 2", ar.Plays)
	}

	so, err := ix.Song("Ozzy Osbourne", "Bark at the Moon", "Bark at the Moon")
	if err != nil {
		t.Fatalf("Song: %v", err)
	}
	if so.Plays != 2 {
		t.Errorf("song plays = %d, want 2", so.Plays)
	}
	if !so.FirstListen.Equal(at(100)) {
		t.Errorf("first listen = %v, want t=100", so.FirstListen)
	}
	if !so.LastListen.Equal(at(200)) {
		t.Errorf("last listen = %v, want t=200", so.LastListen)
	}

	if _, err := ix.Song("Ozzy Osbourne", "Blizzard of Ozz", "Crazy Train"); !errors.Is(err, ErrNotFound) {
		t.Errorf("discarded event produced a song node: err = %v", err)
	}
}

func TestThreeLevelConsistency(t *testing.T) {
	store := buildStore(t,
		play(100, "s1", "a1", "A", 60000),
		play(200, "s2", "a1", "A", 61000),
		play(300, "s1", "a2", "A", 62000),
		play(400, "s3", "a1", "B", 63000),
		play(500, "s1", "a1", "A", 64000),
	)
	ix := Build(store)

	var allPlays int
	var allPlayed time.Duration
	for _, ar := range ix.Artists() {
		var artistPlays int
		var artistPlayed time.Duration
		for _, al := range ar.Albums() {
			var albumPlays int
			var albumPlayed time.Duration
			for _, so := range al.Songs() {
				albumPlays += so.Plays
				albumPlayed += so.Played
			}
			if albumPlays != al.Plays || albumPlayed != al.Played {
				t.Errorf("album %q/%q: songs sum to (%d, %v), album has (%d, %v)",
					ar.Name, al.Name, albumPlays, albumPlayed, al.Plays, al.Played)
			}
			artistPlays += al.Plays
			artistPlayed += al.Played
		}
		if artistPlays != ar.Plays || artistPlayed != ar.Played {
			t.Errorf("artist %q: albums sum to (%d, %v), artist has (%d, %v)",
				ar.Name, artistPlays, artistPlayed, ar.Plays, ar.Played)
		}
		allPlays += ar.Plays
		allPlayed += ar.Played
	}

	total := ix.Totals()
	if allPlays != total.Plays || allPlayed != total.Played {
		t.Errorf("artists sum to (%d, %v), grand total is (%d, %v)",
			allPlays, allPlayed, total.Plays, total.Played)
	}
	if total.Plays != store.Len() {
		t.Errorf("grand total plays = %d, store has %d events", total.Plays, store.Len())
	}
}

func TestSongVersionsAcrossAlbums(t *testing.T) {
	store := buildStore(t,
		play(100, "Live Song", "Studio Album", "A", 60000),
		play(200, "Live Song", "Live Album", "A", 65000),
		play(300, "Live Song", "Studio Album", "A", 60000),
		play(400, "Other", "Studio Album", "A", 30000),
	)
	ix := Build(store)

	versions, err := ix.SongVersions("A", "Live Song")
	if err != nil {
		t.Fatalf("SongVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}
	// Sorted by album name.
	if versions[0].Album != "Live Album" || versions[1].Album != "Studio Album" {
		t.Errorf("version order = %q, %q", versions[0].Album, versions[1].Album)
	}
	if versions[0].Plays+versions[1].Plays != 3 {
		t.Errorf("summed plays = %d, want 3", versions[0].Plays+versions[1].Plays)
	}

	if _, err := ix.SongVersions("A", "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SongVersions for missing track: err = %v, want ErrNotFound", err)
	}
}

func TestFullAndNearFullListens(t *testing.T) {
	// Five plays of a 3-minute song: the modal duration defines its length.
	store := buildStore(t,
		play(100, "s", "al", "A", 180000), // full
		play(200, "s", "al", "A", 180000), // full
		play(300, "s", "al", "A", 170000), // >= 90%
		play(400, "s", "al", "A", 100000), // partial
		play(500, "s", "al", "A", 185000), // skipped around, still full
	)
	ix := Build(store)

	so, err := ix.Song("A", "al", "s")
	if err != nil {
		t.Fatalf("Song: %v", err)
	}
	if so.Length != 180*time.Second {
		t.Errorf("derived length = %v, want 3m", so.Length)
	}
	if so.FullListens != 3 {
		t.Errorf("full listens = %d, want 3", so.FullListens)
	}
	if so.NearFullListens != 4 {
		t.Errorf("90%% listens = %d, want 4", so.NearFullListens)
	}
}

func TestLengthTieBreaksToLongerDuration(t *testing.T) {
	store := buildStore(t,
		play(100, "s", "al", "A", 100000),
		play(200, "s", "al", "A", 200000),
	)
	ix := Build(store)
	so, _ := ix.Song("A", "al", "s")
	if so.Length != 200*time.Second {
		t.Errorf("length = %v, want the longer of the tied durations", so.Length)
	}
}

func TestFullListenFallback(t *testing.T) {
	// All plays are zero-length records, so no length can be derived and
	// the fallback threshold applies.
	store := buildStore(t,
		play(100, "s", "al", "A", 0),
		play(200, "s", "al", "A", 0),
	)
	ix := BuildWithOptions(store, Options{FullListenFallback: time.Minute})
	so, _ := ix.Song("A", "al", "s")
	if so.Length != 0 {
		t.Errorf("length = %v, want 0", so.Length)
	}
	if so.FullListens != 0 {
		t.Errorf("full listens = %d, want 0 under fallback threshold", so.FullListens)
	}
}

func TestLookupNotFound(t *testing.T) {
	store := buildStore(t, play(100, "s", "al", "A", 1000))
	ix := Build(store)

	if _, err := ix.Artist("Nonexistent Artist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Artist: err = %v, want ErrNotFound", err)
	}
	if _, err := ix.Album("A", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Album: err = %v, want ErrNotFound", err)
	}
	if _, err := ix.Song("A", "al", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Song: err = %v, want ErrNotFound", err)
	}
	// Lookups must not create nodes.
	if ix.ArtistCount() != 1 {
		t.Errorf("ArtistCount = %d after failed lookups, want 1", ix.ArtistCount())
	}
}

func TestEmptyStoreBuildsEmptyIndex(t *testing.T) {
	ix := Build(buildStore(t))
	if ix.ArtistCount() != 0 {
		t.Errorf("ArtistCount = %d, want 0", ix.ArtistCount())
	}
	if total := ix.Totals(); total.Plays != 0 || total.Played != 0 {
		t.Errorf("Totals = %+v, want zero", total)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	events := []history.PlayEvent{
		play(100, "s1", "a1", "A", 60000),
		play(200, "s2", "a2", "B", 61000),
		play(300, "s1", "a1", "A", 60000),
	}
	a := Build(buildStore(t, events...))
	b := Build(buildStore(t, events...))

	as, bs := a.Artists(), b.Artists()
	if len(as) != len(bs) {
		t.Fatalf("artist counts differ: %d vs %d", len(as), len(bs))
	}
	for i := range as {
		if as[i].Name != bs[i].Name || as[i].Stats != bs[i].Stats {
			t.Errorf("artist %d differs between builds: %+v vs %+v", i, as[i], bs[i])
		}
	}
}
