package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(e Event) error {
	_, err := j.db.Exec(`
		INSERT INTO events
		(event_id, time, action, detail, pnl, positions, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time, string(e.Action), e.Detail, e.PnL, e.Positions, string(e.Outcome),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
