package db

import "fmt"

// SchemaSQL is the complete schema for fresh loom installs. It is the single
// source of truth: adapter tests load it through GetSchemaSQL() so a column
// referenced by repository code but missing here fails immediately.
const SchemaSQL = `
-- Plan snapshots
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tasks of a snapshot. Ancestry, owners and arguments are JSON columns;
-- the classification index is never stored.
CREATE TABLE IF NOT EXISTS tasks (
	plan_id TEXT NOT NULL,
	id TEXT NOT NULL,
	model TEXT NOT NULL,
	ancestry TEXT NOT NULL DEFAULT '[]',
	state TEXT NOT NULL CHECK(state IN ('pending', 'starting', 'running', 'finishing', 'finished')) DEFAULT 'pending',
	outcome TEXT NOT NULL CHECK(outcome IN ('', 'success', 'failed')) DEFAULT '',
	abstract INTEGER NOT NULL DEFAULT 0,
	executable INTEGER NOT NULL DEFAULT 1,
	mission INTEGER NOT NULL DEFAULT 0,
	permanent INTEGER NOT NULL DEFAULT 0,
	owners TEXT NOT NULL DEFAULT '[]',
	arguments TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (plan_id, id),
	FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
);

-- Relation edges of a snapshot
CREATE TABLE IF NOT EXISTS edges (
	plan_id TEXT NOT NULL,
	parent_id TEXT NOT NULL,
	child_id TEXT NOT NULL,
	relation TEXT NOT NULL CHECK(relation IN ('hierarchy', 'signal', 'forwarding')),
	data TEXT,
	PRIMARY KEY (plan_id, parent_id, child_id, relation),
	FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
);

-- Mutation audit trail
CREATE TABLE IF NOT EXISTS operation_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL,
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// GetSchemaSQL returns the authoritative schema for tests and setup.
func GetSchemaSQL() string {
	return SchemaSQL
}

// InitSchema creates all tables if they do not exist.
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return err
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
