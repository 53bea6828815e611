// Package export writes a listening history out to a SQLite database
// so other tools can query it with plain SQL.
package export

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/streamhist/streamhist/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS Artist (
	name TEXT NOT NULL PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS Album (
	artist TEXT NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (artist, name),
	FOREIGN KEY (artist) REFERENCES Artist (name)
);

CREATE TABLE IF NOT EXISTS Track (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artist TEXT NOT NULL,
	album TEXT NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (artist, album) REFERENCES Album (artist, name)
);

CREATE TABLE IF NOT EXISTS Listen (
	track INTEGER NOT NULL,
	date INTEGER NOT NULL,
	ms_played INTEGER NOT NULL,
	PRIMARY KEY (track, date),
	FOREIGN KEY (track) REFERENCES Track (id)
);
`

type Database struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path and ensures the
// schema exists.
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// WriteEvents inserts the store's events transactionally. Writing the
// same history twice is a no-op because listens are keyed by track and
// timestamp.
func (d *Database) WriteEvents(store *history.EventStore) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	trackIDs := make(map[[3]string]int64)
	for e := range store.All() {
		key := [3]string{e.Artist, e.Album, e.Track}
		id, ok := trackIDs[key]
		if !ok {
			id, err = createTrack(tx, e.Artist, e.Album, e.Track)
			if err != nil {
				return err
			}
			trackIDs[key] = id
		}
		_, err := tx.Exec("INSERT OR IGNORE INTO Listen (track, date, ms_played) VALUES (?, ?, ?)",
			id, e.Timestamp.Unix(), e.Played.Milliseconds())
		if err != nil {
			return fmt.Errorf("inserting listen of track %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func createTrack(tx *sql.Tx, artist, album, name string) (int64, error) {
	if err := createArtist(tx, artist); err != nil {
		return 0, err
	}
	if err := createAlbum(tx, artist, album); err != nil {
		return 0, err
	}

	var id int64
	err := tx.QueryRow("SELECT id FROM Track WHERE artist = ? AND album = ? AND name = ?",
		artist, album, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking track %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO Track (artist, album, name) VALUES (?, ?, ?)", artist, album, name)
	if err != nil {
		return 0, fmt.Errorf("inserting track %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting track id for %q: %w", name, err)
	}
	return id, nil
}

func createArtist(tx *sql.Tx, name string) error {
	var dummy string
	err := tx.QueryRow("SELECT name FROM Artist WHERE name = ?", name).Scan(&dummy)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec("INSERT INTO Artist (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("inserting artist %q: %w", name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking artist %q: %w", name, err)
	}
	return nil
}

func createAlbum(tx *sql.Tx, artist, name string) error {
	var dummy string
	err := tx.QueryRow("SELECT name FROM Album WHERE artist = ? AND name = ?", artist, name).Scan(&dummy)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec("INSERT INTO Album (artist, name) VALUES (?, ?)", artist, name); err != nil {
			return fmt.Errorf("inserting album %q for %q: %w", name, artist, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking album %q: %w", name, err)
	}
	return nil
}

// ListenCount reports how many listens are stored, mostly for
// reporting after an export run.
func (d *Database) ListenCount() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM Listen").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting listens: %w", err)
	}
	return count, nil
}
