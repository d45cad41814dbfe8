package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetEvent returns a single event by ID.
func (j *SQLite) GetEvent(eventID string) (Event, error) {
	row := j.db.QueryRow(`
		SELECT event_id, time, action, detail, pnl, positions, outcome
		FROM events
		WHERE event_id = ?`, eventID)

	var e Event
	var action, outcome string
	err := row.Scan(&e.ID, &e.Time, &action, &e.Detail, &e.PnL, &e.Positions, &outcome)
	if err != nil {
		if err == sql.ErrNoRows {
			return Event{}, fmt.Errorf("event %q not found", eventID)
		}
		return Event{}, err
	}
	e.Action = Action(action)
	e.Outcome = Outcome(outcome)
	return e, nil
}

// ListEventsBetween returns events with time in [start, end), oldest first.
func (j *SQLite) ListEventsBetween(start, end time.Time) ([]Event, error) {
	rows, err := j.db.Query(`
		SELECT event_id, time, action, detail, pnl, positions, outcome
		FROM events
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var action, outcome string
		if err := rows.Scan(&e.ID, &e.Time, &action, &e.Detail, &e.PnL, &e.Positions, &outcome); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByAction tallies events per action within [start, end).
func (j *SQLite) CountByAction(start, end time.Time) (map[Action]int, error) {
	rows, err := j.db.Query(`
		SELECT action, COUNT(*)
		FROM events
		WHERE time >= ? AND time < ?
		GROUP BY action`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Action]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		out[Action(action)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
