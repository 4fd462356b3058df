package db

import "fmt"

// Columns the importer cannot work without. Everything else in the nodes
// table is optional and only written when present.
var requiredNodeColumns = []string{
	"id", "type", "title", "created_at", "updated_at",
	"is_item", "parent_id", "conversation_id",
}

// Only the columns this importer populates plus the metadata columns the
// app expects to find. Written with IF NOT EXISTS so an existing Mycelica
// database is reused as is; the app's own nodes table has no level column.
func (db *DB) initSchema() error {
	schema := `
	-- Graph nodes: conversation containers and their exchange/message items
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT,
		content TEXT,
		position_x REAL NOT NULL DEFAULT 0,
		position_y REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		cluster_id INTEGER,
		cluster_label TEXT,
		level INTEGER,
		depth INTEGER NOT NULL DEFAULT 0,
		is_item INTEGER NOT NULL DEFAULT 0,
		is_universe INTEGER NOT NULL DEFAULT 0,
		parent_id TEXT,
		child_count INTEGER NOT NULL DEFAULT 0,
		ai_title TEXT,
		summary TEXT,
		tags TEXT,
		emoji TEXT,
		is_processed INTEGER NOT NULL DEFAULT 0,
		conversation_id TEXT,
		sequence_index INTEGER,
		is_pinned INTEGER NOT NULL DEFAULT 0,
		last_accessed_at INTEGER,
		source TEXT
	);

	-- Directed relations between nodes
	CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		label TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);

	-- One row per importer run
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		strategy TEXT NOT NULL,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		conversations_imported INTEGER NOT NULL DEFAULT 0,
		items_imported INTEGER NOT NULL DEFAULT 0,
		edges_imported INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		status TEXT CHECK(status IN ('success', 'aborted', 'failed')),
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_import_log_file_hash ON import_log(file_hash);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	if err := db.loadNodeColumns(); err != nil {
		return err
	}
	for _, name := range requiredNodeColumns {
		if !db.HasNodeColumn(name) {
			return fmt.Errorf("nodes table has no %s column", name)
		}
	}

	indexes := `
	CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);
	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);
	CREATE INDEX IF NOT EXISTS idx_nodes_conversation ON nodes(conversation_id);
	`
	if db.HasNodeColumn("level") {
		indexes += "CREATE INDEX IF NOT EXISTS idx_nodes_level ON nodes(level);\n"
	}
	_, err := db.conn.Exec(indexes)
	return err
}

func (db *DB) loadNodeColumns() error {
	rows, err := db.conn.Query("SELECT name FROM pragma_table_info('nodes')")
	if err != nil {
		return fmt.Errorf("failed to read nodes columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	db.nodeColumns = make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		db.nodeColumns[name] = true
	}
	return rows.Err()
}

// HasNodeColumn reports whether the nodes table has the named column
func (db *DB) HasNodeColumn(name string) bool {
	return db.nodeColumns[name]
}
