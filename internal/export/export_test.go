package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/streamhist/streamhist/internal/history"
)

func createTestDb(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "streamhist.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", dbPath, err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func testStore(t *testing.T) *history.EventStore {
	t.Helper()
	base := time.Date(2021, time.May, 1, 12, 0, 0, 0, time.UTC)
	store := history.NewStore()
	err := store.Add(
		history.PlayEvent{Timestamp: base, Played: 215 * time.Second,
			Track: "Crazy Train", Album: "Blizzard of Ozz", Artist: "Ozzy Osbourne"},
		history.PlayEvent{Timestamp: base.Add(time.Hour), Played: 180 * time.Second,
			Track: "Crazy Train", Album: "Blizzard of Ozz", Artist: "Ozzy Osbourne"},
		history.PlayEvent{Timestamp: base.Add(2 * time.Hour), Played: 300 * time.Second,
			Track: "Paranoid", Album: "Paranoid", Artist: "Black Sabbath"},
	)
	if err != nil {
		t.Fatalf("adding events: %v", err)
	}
	store.Freeze()
	return store
}

func TestWriteEvents(t *testing.T) {
	db := createTestDb(t)
	store := testStore(t)

	if err := db.WriteEvents(store); err != nil {
		t.Fatalf("WriteEvents failed: %v", err)
	}

	count, err := db.ListenCount()
	if err != nil {
		t.Fatalf("ListenCount: %v", err)
	}
	if count != 3 {
		t.Errorf("got %d listens, want 3", count)
	}

	var tracks int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM Track").Scan(&tracks); err != nil {
		t.Fatalf("counting tracks: %v", err)
	}
	if tracks != 2 {
		t.Errorf("got %d tracks, want 2 (repeat plays share a track row)", tracks)
	}
}

func TestWriteEventsIdempotent(t *testing.T) {
	db := createTestDb(t)
	store := testStore(t)

	if err := db.WriteEvents(store); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := db.WriteEvents(store); err != nil {
		t.Fatalf("second write: %v", err)
	}

	count, err := db.ListenCount()
	if err != nil {
		t.Fatalf("ListenCount: %v", err)
	}
	if count != 3 {
		t.Errorf("got %d listens after re-export, want 3", count)
	}
}

func TestOpenBadPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "x.db")); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
