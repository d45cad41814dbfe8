package journal

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	action TEXT NOT NULL,
	detail TEXT NOT NULL,
	pnl REAL NOT NULL,
	positions INTEGER NOT NULL,
	outcome TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
CREATE INDEX IF NOT EXISTS idx_events_action ON events(action);
`
