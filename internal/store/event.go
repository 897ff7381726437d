package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/nritya/internal/gesture"
)

// EventRecord is a persisted gesture event.
type EventRecord struct {
	ID int64 `json:"id"`
	gesture.Event
}

// EventRepository records the history of emitted events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append records one emitted event.
func (r *EventRepository) Append(ev gesture.Event) error {
	_, err := r.db.Exec(
		`INSERT INTO events (gesture, confidence, source, occurred_at) VALUES (?, ?, ?, ?)`,
		string(ev.Type), ev.Confidence, string(ev.Source), ev.Timestamp.UTC(),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, confidence, source, occurred_at FROM events
		 ORDER BY occurred_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var rec EventRecord
		var gestureType, source string
		if err := rows.Scan(&rec.ID, &gestureType, &rec.Confidence, &source, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Type = gesture.Type(gestureType)
		rec.Source = gesture.Source(source)
		events = append(events, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Counts returns how many events of each type were emitted since the given
// time.
func (r *EventRepository) Counts(since time.Time) (map[gesture.Type]int, error) {
	rows, err := r.db.Query(
		`SELECT gesture, COUNT(*) FROM events WHERE occurred_at >= ? GROUP BY gesture`,
		since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[gesture.Type]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[gesture.Type(t)] = n
	}
	return counts, rows.Err()
}

// Prune deletes events older than the given time and reports how many were
// removed.
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
