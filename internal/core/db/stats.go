package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Stats represents graph statistics
type Stats struct {
	TotalNodes         int
	Containers         int // is_item = 0
	Items              int // is_item = 1
	ConversationLinked int
	TotalEdges         int
	ByType             map[string]int
	ByLevel            map[int]int // Empty when the nodes table has no level column
	Oldest             time.Time
	Newest             time.Time
}

// GetStats returns node and edge counts for the graph
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByType:  make(map[string]int),
		ByLevel: make(map[int]int),
	}

	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_item = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_item = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN conversation_id IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM nodes
	`).Scan(&stats.TotalNodes, &stats.Containers, &stats.Items, &stats.ConversationLinked)
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}

	err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges").Scan(&stats.TotalEdges)
	if err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT type, COUNT(*) FROM nodes GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to group nodes by type: %w", err)
	}
	for rows.Next() {
		var nodeType string
		var count int
		if err := rows.Scan(&nodeType, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByType[nodeType] = count
	}
	_ = rows.Close()

	if db.HasNodeColumn("level") {
		rows, err = db.conn.QueryContext(ctx, "SELECT level, COUNT(*) FROM nodes WHERE level IS NOT NULL GROUP BY level ORDER BY level")
		if err != nil {
			return nil, fmt.Errorf("failed to group nodes by level: %w", err)
		}
		for rows.Next() {
			var level, count int
			if err := rows.Scan(&level, &count); err != nil {
				_ = rows.Close()
				return nil, err
			}
			stats.ByLevel[level] = count
		}
		_ = rows.Close()
	}

	// Date range (only if we have nodes)
	if stats.TotalNodes > 0 {
		var minCreated, maxUpdated sql.NullInt64
		err = db.conn.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(updated_at) FROM nodes").Scan(&minCreated, &maxUpdated)
		if err != nil {
			return nil, fmt.Errorf("failed to get date range: %w", err)
		}
		if minCreated.Valid {
			stats.Oldest = time.UnixMilli(minCreated.Int64)
		}
		if maxUpdated.Valid {
			stats.Newest = time.UnixMilli(maxUpdated.Int64)
		}
	}

	return stats, nil
}
