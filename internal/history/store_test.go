package history

import (
	"testing"
	"time"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func event(sec int64, track, album, artist string, ms int64) PlayEvent {
	return PlayEvent{
		Timestamp: at(sec),
		Played:    time.Duration(ms) * time.Millisecond,
		Track:     track,
		Album:     album,
		Artist:    artist,
	}
}

func TestFreezeDeduplicatesByTimestamp(t *testing.T) {
	s := NewStore()
	s.Add(
		event(100, "Bark at the Moon", "Bark at the Moon", "Ozzy Osbourne", 180000),
		event(100, "Crazy Train", "Blizzard of Ozz", "Ozzy Osbourne", 150000),
		event(200, "Bark at the Moon", "Bark at the Moon", "Ozzy Osbourne", 180000),
	)
	s.Freeze()

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	var tracks []string
	for e := range s.All() {
		tracks = append(tracks, e.Track)
	}
	if tracks[0] != "Bark at the Moon" || tracks[1] != "Bark at the Moon" {
		t.Errorf("surviving tracks = %v, want the first-seen t=100 event and the t=200 event", tracks)
	}
}

func TestFreezeFirstSeenWinsAcrossBatches(t *testing.T) {
	s := NewStore()
	// Two overlapping export files; the second re-reports t=100.
	s.Add(event(100, "First", "A", "X", 1000))
	s.Add(event(100, "Second", "A", "X", 1000), event(50, "Earlier", "A", "X", 1000))
	s.Freeze()

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	var got []string
	for e := range s.All() {
		got = append(got, e.Track)
	}
	if got[0] != "Earlier" || got[1] != "First" {
		t.Errorf("events = %v, want [Earlier First]", got)
	}
}

func TestFreezeSortsOutOfOrderInput(t *testing.T) {
	s := NewStore()
	s.Add(event(300, "c", "al", "ar", 1), event(100, "a", "al", "ar", 1), event(200, "b", "al", "ar", 1))
	s.Freeze()

	var prev time.Time
	for e := range s.All() {
		if !prev.IsZero() && !prev.Before(e.Timestamp) {
			t.Fatalf("timeline not strictly increasing: %v then %v", prev, e.Timestamp)
		}
		prev = e.Timestamp
	}
}

func TestAddAfterFreeze(t *testing.T) {
	s := NewStore()
	s.Add(event(100, "a", "al", "ar", 1))
	s.Freeze()
	if err := s.Add(event(200, "b", "al", "ar", 1)); err != ErrFrozen {
		t.Errorf("Add after Freeze = %v, want ErrFrozen", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestEmptyStore(t *testing.T) {
	s := NewStore()
	s.Freeze()
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if _, ok := s.First(); ok {
		t.Errorf("First() ok = true for empty store")
	}
	if _, ok := s.Last(); ok {
		t.Errorf("Last() ok = true for empty store")
	}
	for range s.All() {
		t.Fatalf("All() yielded an event from an empty store")
	}
}

func TestBetween(t *testing.T) {
	s := NewStore()
	for sec := int64(100); sec <= 500; sec += 100 {
		s.Add(event(sec, "t", "al", "ar", 1))
	}
	s.Freeze()

	got := s.Between(at(200), at(400))
	if len(got) != 2 {
		t.Fatalf("Between(200, 400) returned %d events, want 2 (end exclusive)", len(got))
	}
	if !got[0].Timestamp.Equal(at(200)) || !got[1].Timestamp.Equal(at(300)) {
		t.Errorf("Between(200, 400) = %v, %v", got[0].Timestamp, got[1].Timestamp)
	}

	if got := s.Between(at(400), at(200)); len(got) != 0 {
		t.Errorf("inverted range returned %d events, want 0", len(got))
	}
	if got := s.Between(at(600), at(700)); len(got) != 0 {
		t.Errorf("range past the end returned %d events, want 0", len(got))
	}
}

func TestSelectIsLazyAndFiltered(t *testing.T) {
	s := NewStore()
	s.Add(
		event(100, "a", "al", "Artist A", 1),
		event(200, "b", "al", "Artist B", 1),
		event(300, "c", "al", "Artist A", 1),
	)
	s.Freeze()

	count := 0
	for e := range s.Select(func(e PlayEvent) bool { return e.Artist == "Artist A" }) {
		if e.Artist != "Artist A" {
			t.Errorf("Select yielded %q", e.Artist)
		}
		count++
		break // early stop must be honored
	}
	if count != 1 {
		t.Errorf("iterated %d events after break, want 1", count)
	}
}

func TestWindowSharesTimeline(t *testing.T) {
	s := NewStore()
	for sec := int64(100); sec <= 500; sec += 100 {
		s.Add(event(sec, "t", "al", "ar", 1))
	}
	s.Freeze()

	w := s.Window(at(200), at(500))
	if !w.Frozen() {
		t.Errorf("window is not frozen")
	}
	if w.Len() != 3 {
		t.Errorf("window Len() = %d, want 3", w.Len())
	}
	first, _ := w.First()
	last, _ := w.Last()
	if !first.Equal(at(200)) || !last.Equal(at(400)) {
		t.Errorf("window range = [%v, %v]", first, last)
	}
}
