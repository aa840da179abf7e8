package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create snapshot slots",
		SQL: `
			CREATE TABLE snapshots (
				slot        TEXT PRIMARY KEY,
				data        TEXT NOT NULL,
				saved_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "track snapshot size",
		SQL: `
			ALTER TABLE snapshots ADD COLUMN size INTEGER NOT NULL DEFAULT 0;
		`,
	},
}
