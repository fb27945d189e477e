package curated

import "time"

// Playlist is one imported YouTube playlist.
type Playlist struct {
	ID         int64     `json:"id"`
	YouTubeURL string    `json:"youtube_url"`
	Genre      string    `json:"genre"`
	Name       string    `json:"name"`
	ImportedAt time.Time `json:"imported_at"`
	TrackCount int       `json:"track_count"`
}

// Track is one curated track ready for the segmentation pipeline.
type Track struct {
	ID             int64     `json:"id"`
	PlaylistID     int64     `json:"playlist_id"`
	YouTubeVideoID string    `json:"youtube_video_id"`
	YouTubeTitle   string    `json:"youtube_title"`
	ArtistName     string    `json:"artist_name"`
	Name           string    `json:"name"`
	AlbumName      string    `json:"album_name,omitempty"`
	Duration       float64   `json:"duration"`
	SyncedLyrics   string    `json:"synced_lyrics"`
	Genre          string    `json:"genre"`
	LRCLibID       *int64    `json:"lrclib_id,omitempty"`
	SongKey        string    `json:"song_key"`
	ImportedAt     time.Time `json:"imported_at"`
}

// SkippedTrack records a playlist video that could not be curated.
type SkippedTrack struct {
	ID             int64     `json:"id"`
	PlaylistID     int64     `json:"playlist_id"`
	YouTubeVideoID string    `json:"youtube_video_id"`
	YouTubeTitle   string    `json:"youtube_title"`
	ParsedArtist   string    `json:"parsed_artist,omitempty"`
	ParsedTitle    string    `json:"parsed_title,omitempty"`
	Reason         string    `json:"reason"`
	ImportedAt     time.Time `json:"imported_at"`
}
