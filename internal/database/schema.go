package database

const schema = `
-- One row per dispatched issue action
CREATE TABLE IF NOT EXISTS actions (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('protect', 'french_only', 'language_exempt', 'hide_request', 'delete_content', 'delete_request')),
	item_id TEXT NOT NULL,
	item_name TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	message TEXT,
	expires_at INTEGER,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at);
CREATE INDEX IF NOT EXISTS idx_actions_item_id ON actions(item_id);
CREATE INDEX IF NOT EXISTS idx_actions_kind_outcome ON actions(kind, outcome);
`

// GetSchema returns the database schema
func GetSchema() string {
	return schema
}

const migrateAddDeleteFlags = `
ALTER TABLE actions ADD COLUMN delete_flags TEXT NOT NULL DEFAULT '';
`
