// Package curated stores and serves the hand-curated playlist tracks that
// feed the segmentation pipeline.
package curated

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrDuplicateVideo means the same YouTube video has already been imported.
var ErrDuplicateVideo = errors.New("video already imported")

// ErrDuplicateSong means a different video for the same song has already
// been curated.
var ErrDuplicateSong = errors.New("song already curated under a different video")

// Store is the curated-track SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating and migrating if necessary) the curated database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening curated db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating curated db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPlaylist inserts a playlist row if its URL is new, returning the
// playlist id either way.
func (s *Store) UpsertPlaylist(youtubeURL, genre, name string) (int64, error) {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO playlists (youtube_url, genre, name) VALUES (?, ?, ?)`,
		youtubeURL, genre, name)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM playlists WHERE youtube_url = ?`, youtubeURL).Scan(&id)
	return id, err
}

// InsertTrack adds a curated track, computing its dedup song_key, and
// returns ErrDuplicateVideo / ErrDuplicateSong on a constraint violation.
func (s *Store) InsertTrack(playlistID int64, video YouTubeVideo, artist, title, album, lyrics, genre string) error {
	songKey := NormalizeSongKey(artist, title)

	_, err := s.db.Exec(`
		INSERT INTO tracks (playlist_id, youtube_video_id, youtube_title, artist_name, name, album_name, duration, synced_lyrics, genre, song_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playlistID, video.VideoID, video.Title, artist, title, album, video.Duration, lyrics, genre, songKey)
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "youtube_video_id"):
		return ErrDuplicateVideo
	case strings.Contains(msg, "song_key"):
		return ErrDuplicateSong
	default:
		return err
	}
}

// InsertSkipped records a playlist video that could not be curated.
func (s *Store) InsertSkipped(playlistID int64, video YouTubeVideo, parsedArtist, parsedTitle, reason string) error {
	_, err := s.db.Exec(`
		INSERT INTO skipped_tracks (playlist_id, youtube_video_id, youtube_title, parsed_artist, parsed_title, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		playlistID, video.VideoID, video.Title, parsedArtist, parsedTitle, reason)
	return err
}

// GetCuratedTrackCount counts curated tracks, optionally filtered to genre.
func (s *Store) GetCuratedTrackCount(genre string) (int, error) {
	var count int
	var err error
	if genre == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE genre = ?`, genre).Scan(&count)
	}
	return count, err
}

// GetCuratedTracks returns up to limit curated tracks (nil for unbounded),
// skipping any whose id is present in processedIDs. When both limit and
// processedIDs are set, rows are over-fetched to compensate for filtered
// hits without needing a second round trip.
func (s *Store) GetCuratedTracks(genre string, limit *int, offset int, processedIDs map[int64]bool) ([]Track, error) {
	fetchLimit := limit
	if limit != nil && len(processedIDs) > 0 {
		n := *limit*3 + len(processedIDs)
		fetchLimit = &n
	}

	query := `SELECT id, playlist_id, youtube_video_id, youtube_title, artist_name, name, album_name, duration, synced_lyrics, genre, lrclib_id, song_key, imported_at FROM tracks`
	args := []any{}
	if genre != "" {
		query += ` WHERE genre = ?`
		args = append(args, genre)
	}
	query += ` ORDER BY id`
	if fetchLimit != nil {
		query += ` LIMIT ?`
		args = append(args, *fetchLimit)
	} else if offset > 0 {
		query += ` LIMIT -1` // SQLite requires LIMIT before OFFSET
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		var albumName, songKey sql.NullString
		var lrclibID sql.NullInt64
		var importedAt time.Time
		if err := rows.Scan(&t.ID, &t.PlaylistID, &t.YouTubeVideoID, &t.YouTubeTitle, &t.ArtistName,
			&t.Name, &albumName, &t.Duration, &t.SyncedLyrics, &t.Genre, &lrclibID, &songKey, &importedAt); err != nil {
			return nil, err
		}
		if processedIDs[t.ID] {
			continue
		}
		t.AlbumName = albumName.String
		t.SongKey = songKey.String
		if lrclibID.Valid {
			t.LRCLibID = &lrclibID.Int64
		}
		t.ImportedAt = importedAt
		tracks = append(tracks, t)

		if limit != nil && len(tracks) >= *limit {
			break
		}
	}
	return tracks, rows.Err()
}

// GenreCount is one genre's track count.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// CountByGenre returns the curated track count for every genre present.
func (s *Store) CountByGenre() ([]GenreCount, error) {
	rows, err := s.db.Query(`SELECT genre, COUNT(*) FROM tracks GROUP BY genre ORDER BY genre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []GenreCount
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

// CountSkipped returns how many videos were skipped during import.
func (s *Store) CountSkipped() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM skipped_tracks`).Scan(&count)
	return count, err
}

// GetTrackByID fetches a single curated track, or (Track{}, false) if
// no track with that id exists.
func (s *Store) GetTrackByID(id int64) (Track, bool, error) {
	row := s.db.QueryRow(`SELECT id, playlist_id, youtube_video_id, youtube_title, artist_name, name, album_name, duration, synced_lyrics, genre, lrclib_id, song_key, imported_at FROM tracks WHERE id = ?`, id)

	var t Track
	var albumName, songKey sql.NullString
	var lrclibID sql.NullInt64
	var importedAt time.Time
	err := row.Scan(&t.ID, &t.PlaylistID, &t.YouTubeVideoID, &t.YouTubeTitle, &t.ArtistName,
		&t.Name, &albumName, &t.Duration, &t.SyncedLyrics, &t.Genre, &lrclibID, &songKey, &importedAt)
	if err == sql.ErrNoRows {
		return Track{}, false, nil
	}
	if err != nil {
		return Track{}, false, err
	}
	t.AlbumName = albumName.String
	t.SongKey = songKey.String
	if lrclibID.Valid {
		t.LRCLibID = &lrclibID.Int64
	}
	t.ImportedAt = importedAt
	return t, true, nil
}

// ListPlaylists returns every playlist with its track count, newest first.
func (s *Store) ListPlaylists() ([]Playlist, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.youtube_url, p.genre, p.name, p.imported_at, COUNT(t.id)
		FROM playlists p LEFT JOIN tracks t ON t.playlist_id = p.id
		GROUP BY p.id ORDER BY p.imported_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		var name sql.NullString
		if err := rows.Scan(&p.ID, &p.YouTubeURL, &p.Genre, &name, &p.ImportedAt, &p.TrackCount); err != nil {
			return nil, err
		}
		p.Name = name.String
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// ListSkipped returns skipped videos, optionally filtered to one playlist.
func (s *Store) ListSkipped(playlistID *int64) ([]SkippedTrack, error) {
	query := `SELECT id, playlist_id, youtube_video_id, youtube_title, parsed_artist, parsed_title, reason, imported_at FROM skipped_tracks`
	args := []any{}
	if playlistID != nil {
		query += ` WHERE playlist_id = ?`
		args = append(args, *playlistID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skipped []SkippedTrack
	for rows.Next() {
		var sk SkippedTrack
		var parsedArtist, parsedTitle sql.NullString
		if err := rows.Scan(&sk.ID, &sk.PlaylistID, &sk.YouTubeVideoID, &sk.YouTubeTitle,
			&parsedArtist, &parsedTitle, &sk.Reason, &sk.ImportedAt); err != nil {
			return nil, err
		}
		sk.ParsedArtist = parsedArtist.String
		sk.ParsedTitle = parsedTitle.String
		skipped = append(skipped, sk)
	}
	return skipped, rows.Err()
}

// YouTubeVideo is one entry from a playlist listing.
type YouTubeVideo struct {
	VideoID  string
	Title    string
	Uploader string
	Duration float64
	URL      string
}
