package curated

import (
	"database/sql"
	"log/slog"
)

const schema = `
CREATE TABLE IF NOT EXISTS playlists (
	id INTEGER PRIMARY KEY,
	youtube_url TEXT UNIQUE NOT NULL,
	genre TEXT NOT NULL,
	name TEXT,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY,
	playlist_id INTEGER REFERENCES playlists(id),
	youtube_video_id TEXT UNIQUE NOT NULL,
	youtube_title TEXT NOT NULL,
	artist_name TEXT NOT NULL,
	name TEXT NOT NULL,
	album_name TEXT,
	duration FLOAT NOT NULL,
	synced_lyrics TEXT NOT NULL,
	genre TEXT NOT NULL,
	lrclib_id INTEGER,
	song_key TEXT,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS skipped_tracks (
	id INTEGER PRIMARY KEY,
	playlist_id INTEGER REFERENCES playlists(id),
	youtube_video_id TEXT NOT NULL,
	youtube_title TEXT NOT NULL,
	parsed_artist TEXT,
	parsed_title TEXT,
	reason TEXT NOT NULL,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tracks_genre ON tracks(genre);
CREATE INDEX IF NOT EXISTS idx_tracks_playlist ON tracks(playlist_id);
`

const songKeyIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_song_key ON tracks(song_key);`

// migrate applies the base schema, then backfills the song_key column for
// databases created before it existed. The unique index is only added once
// every row has a key; if legacy duplicates prevent that, a warning is
// logged instead of failing the whole migration.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	hasSongKey, err := columnExists(db, "tracks", "song_key")
	if err != nil {
		return err
	}
	if !hasSongKey {
		if _, err := db.Exec(`ALTER TABLE tracks ADD COLUMN song_key TEXT`); err != nil {
			return err
		}
	}

	rows, err := db.Query(`SELECT id, artist_name, name FROM tracks WHERE song_key IS NULL`)
	if err != nil {
		return err
	}
	type pending struct {
		id            int64
		artist, title string
	}
	var toBackfill []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.artist, &p.title); err != nil {
			rows.Close()
			return err
		}
		toBackfill = append(toBackfill, p)
	}
	rows.Close()

	for _, p := range toBackfill {
		key := NormalizeSongKey(p.artist, p.title)
		if _, err := db.Exec(`UPDATE tracks SET song_key = ? WHERE id = ?`, key, p.id); err != nil {
			return err
		}
	}

	if _, err := db.Exec(songKeyIndex); err != nil {
		slog.Warn("could not create unique song_key index, legacy duplicates likely exist", "error", err)
	}

	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
