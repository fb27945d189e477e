// Package ledger is the durable per-(source, track) outcome record the
// pipeline runner consults to resume a run without redoing finished work.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Status is a track's last recorded processing outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_tracks (
	source TEXT NOT NULL,
	track_id INTEGER NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (source, track_id)
);

CREATE INDEX IF NOT EXISTS idx_processed_tracks_source_status ON processed_tracks(source, status);
`

// Entry is one ledger row.
type Entry struct {
	Source       string
	TrackID      int64
	Status       Status
	ErrorMessage string
}

// Ledger records, per (source, track_id), the outcome of the last pipeline
// attempt so reruns can skip already-settled tracks.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if absent) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// MarkProcessed upserts a (source, track_id) outcome. A conflicting row has
// its status, error_message, and timestamp replaced outright — a later
// success always overwrites a prior failed.
func (l *Ledger) MarkProcessed(source string, trackID int64, status Status, errMsg string) error {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}
	_, err := l.db.Exec(`
		INSERT INTO processed_tracks (source, track_id, status, error_message, processed_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source, track_id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			processed_at = excluded.processed_at`,
		source, trackID, string(status), errVal)
	return err
}

// GetEntry fetches one track's ledger row, if present.
func (l *Ledger) GetEntry(source string, trackID int64) (Entry, bool, error) {
	var e Entry
	var errMsg sql.NullString
	var status string
	err := l.db.QueryRow(`SELECT source, track_id, status, error_message FROM processed_tracks WHERE source = ? AND track_id = ?`,
		source, trackID).Scan(&e.Source, &e.TrackID, &status, &errMsg)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e.Status = Status(status)
	e.ErrorMessage = errMsg.String
	return e, true, nil
}

// GetSettledIDs returns every track_id for source whose ledger status is one
// of statuses, as a set for O(1) membership checks while filtering
// candidate tracks. Defaults to {success, failed} — the two outcomes that
// are not retried without an explicit reprocess request.
func (l *Ledger) GetSettledIDs(source string, statuses ...Status) (map[int64]bool, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusSuccess, StatusFailed}
	}

	args := make([]any, 0, len(statuses)+1)
	args = append(args, source)
	inClause := ""
	for i, s := range statuses {
		if i > 0 {
			inClause += ", "
		}
		inClause += "?"
		args = append(args, string(s))
	}

	rows, err := l.db.Query(`SELECT track_id FROM processed_tracks WHERE source = ? AND status IN (`+inClause+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// GetProcessedCount returns how many tracks hold a ledger row, optionally
// filtered to one source and/or one status. Empty string/status means
// unfiltered on that dimension.
func (l *Ledger) GetProcessedCount(source string, status Status) (int, error) {
	query := `SELECT COUNT(*) FROM processed_tracks WHERE 1=1`
	var args []any
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}

	var count int
	err := l.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// ClearProcessed removes ledger rows, optionally filtered to one source, and
// returns how many rows were removed.
func (l *Ledger) ClearProcessed(source string) (int64, error) {
	var res sql.Result
	var err error
	if source == "" {
		res, err = l.db.Exec(`DELETE FROM processed_tracks`)
	} else {
		res, err = l.db.Exec(`DELETE FROM processed_tracks WHERE source = ?`, source)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
