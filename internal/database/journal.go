package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/constants"
)

// ActionEntry is one journaled action
type ActionEntry struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	ItemID      string     `json:"item_id"`
	ItemName    string     `json:"item_name"`
	Outcome     string     `json:"outcome"`
	Message     string     `json:"message,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	DeleteFlags string     `json:"delete_flags,omitempty"`
	Duration    int64      `json:"duration_ms"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ActionFilters narrows ListActions
type ActionFilters struct {
	Kind    string
	ItemID  string
	Outcome string
	Limit   int
	Offset  int
}

// Journal records dispatched actions into the database
type Journal struct {
	db *DB
}

var _ actions.Recorder = (*Journal)(nil)

// NewJournal wraps db as an action recorder
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

// RecordAction inserts one journal row
func (j *Journal) RecordAction(ctx context.Context, rec actions.Record) error {
	return j.db.InsertAction(ctx, &ActionEntry{
		ID:          rec.ID,
		Kind:        string(rec.Kind),
		ItemID:      rec.ItemID,
		ItemName:    rec.ItemName,
		Outcome:     string(rec.Outcome),
		Message:     rec.Message,
		ExpiresAt:   rec.ExpiresAt,
		DeleteFlags: deleteFlags(rec),
		Duration:    rec.Duration.Milliseconds(),
		CreatedAt:   rec.CreatedAt,
	})
}

// deleteFlags lists the systems a content delete reached, e.g. "arr,jellyseerr"
func deleteFlags(rec actions.Record) string {
	if rec.Kind != actions.DeleteContent {
		return ""
	}
	var flags []string
	if rec.Delete.FromLibraryManager {
		flags = append(flags, "arr")
	}
	if rec.Delete.FromRequestManager {
		flags = append(flags, "jellyseerr")
	}
	return strings.Join(flags, ",")
}

// InsertAction stores an entry
func (db *DB) InsertAction(ctx context.Context, e *ActionEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var expiresAt sql.NullInt64
	if e.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: e.ExpiresAt.Unix(), Valid: true}
	}
	var message sql.NullString
	if e.Message != "" {
		message = sql.NullString{String: e.Message, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO actions (id, kind, item_id, item_name, outcome, message, expires_at, delete_flags, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Kind, e.ItemID, e.ItemName, e.Outcome, message, expiresAt, e.DeleteFlags, e.Duration, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert action %s: %w", e.ID, err)
	}
	return nil
}

// ListActions returns journal rows newest first, with the total matching count
func (db *DB) ListActions(ctx context.Context, filters ActionFilters) ([]*ActionEntry, int, error) {
	var where []string
	var args []interface{}

	if filters.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filters.Kind)
	}
	if filters.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, filters.ItemID)
	}
	if filters.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filters.Outcome)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM actions "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}

	query := `
		SELECT id, kind, item_id, item_name, outcome, message, expires_at, delete_flags, duration_ms, created_at
		FROM actions
		` + whereClause + `
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, filters.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*ActionEntry
	for rows.Next() {
		e := &ActionEntry{}
		var message sql.NullString
		var expiresAt sql.NullInt64
		var createdAt int64

		if err := rows.Scan(&e.ID, &e.Kind, &e.ItemID, &e.ItemName, &e.Outcome, &message, &expiresAt, &e.DeleteFlags, &e.Duration, &createdAt); err != nil {
			return nil, 0, err
		}
		if message.Valid {
			e.Message = message.String
		}
		if expiresAt.Valid {
			t := time.Unix(expiresAt.Int64, 0)
			e.ExpiresAt = &t
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}

	return entries, total, rows.Err()
}

// CountActionsByOutcome summarizes the journal
func (db *DB) CountActionsByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM actions GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// DeleteOldActions prunes journal rows older than the retention period.
// Zero keeps everything; -1 deletes everything.
func (db *DB) DeleteOldActions(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays == 0 {
		return 0, nil
	}

	var query string
	var args []interface{}

	if retentionDays == -1 {
		query = "DELETE FROM actions"
	} else {
		cutoffTime := time.Now().AddDate(0, 0, -retentionDays).Unix()
		query = "DELETE FROM actions WHERE created_at < ?"
		args = append(args, cutoffTime)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
