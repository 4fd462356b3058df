package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mycelica/mycimport/internal/core/models"
)

// CountConversationNodes counts nodes linked to a conversation, i.e. exchanges
// left behind by an earlier import.
func (db *DB) CountConversationNodes(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes WHERE conversation_id IS NOT NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversation nodes: %w", err)
	}
	return count, nil
}

// NodeExists reports whether a node with the given id is present
func NodeExists(ctx context.Context, ex Execer, id string) (bool, error) {
	var one int
	err := ex.QueryRowContext(ctx, "SELECT 1 FROM nodes WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up node %s: %w", id, err)
	}
	return true, nil
}

// nodeColumn pairs a nodes column with the value to write
type nodeColumn struct {
	name  string
	value interface{}
}

func nodeValues(n *models.Node) []nodeColumn {
	return []nodeColumn{
		{"id", n.ID},
		{"type", string(n.Type)},
		{"title", n.Title},
		{"url", n.URL},
		{"content", n.Content},
		{"position_x", n.PositionX},
		{"position_y", n.PositionY},
		{"created_at", n.CreatedAt},
		{"updated_at", n.UpdatedAt},
		{"cluster_id", n.ClusterID},
		{"cluster_label", n.ClusterLabel},
		{"level", n.Level},
		{"depth", n.Depth},
		{"is_item", n.IsItem},
		{"is_universe", n.IsUniverse},
		{"parent_id", n.ParentID},
		{"child_count", n.ChildCount},
		{"ai_title", n.AITitle},
		{"summary", n.Summary},
		{"tags", n.Tags},
		{"emoji", n.Emoji},
		{"is_processed", n.IsProcessed},
		{"conversation_id", n.ConversationID},
		{"sequence_index", n.SequenceIndex},
		{"is_pinned", n.IsPinned},
		{"last_accessed_at", n.LastAccessedAt},
		{"source", n.Source},
	}
}

// InsertNode writes one node row through ex, which may be the database or
// an open transaction. Fields whose column the nodes table lacks are
// dropped, so the app's level-less schema takes the same rows.
func (db *DB) InsertNode(ctx context.Context, ex Execer, n *models.Node) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("invalid node %q: %w", n.ID, err)
	}

	values := nodeValues(n)
	cols := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		if !db.HasNodeColumn(v.name) {
			continue
		}
		cols = append(cols, v.name)
		args = append(args, v.value)
	}

	query := "INSERT INTO nodes (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
	}
	return nil
}

// InsertEdge writes one edge row. Both endpoints must already exist.
func InsertEdge(ctx context.Context, ex Execer, e *models.Edge) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid edge %q: %w", e.ID, err)
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO edges (id, source_id, target_id, type, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourceID, e.TargetID, string(e.Type), e.Label, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert edge %s: %w", e.ID, err)
	}
	return nil
}

// ClearGraph deletes every edge and node, returning the number of nodes removed
func ClearGraph(ctx context.Context, ex Execer) (int64, error) {
	if _, err := ex.ExecContext(ctx, "DELETE FROM edges"); err != nil {
		return 0, fmt.Errorf("failed to clear edges: %w", err)
	}
	result, err := ex.ExecContext(ctx, "DELETE FROM nodes")
	if err != nil {
		return 0, fmt.Errorf("failed to clear nodes: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared nodes: %w", err)
	}
	return removed, nil
}

// GetNode loads a node by id, or returns nil when it does not exist
func (db *DB) GetNode(ctx context.Context, id string) (*models.Node, error) {
	var (
		n          models.Node
		nodeType   string
		isItem     bool
		isUniverse bool
		isPinned   bool
		processed  bool
	)
	level := "NULL"
	if db.HasNodeColumn("level") {
		level = "level"
	}
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, type, title, content, position_x, position_y,
			created_at, updated_at, `+level+`, depth, is_item, is_universe,
			parent_id, child_count, summary, emoji, is_processed,
			conversation_id, sequence_index, is_pinned, source
		FROM nodes WHERE id = ?
	`, id).Scan(
		&n.ID, &nodeType, &n.Title, &n.Content, &n.PositionX, &n.PositionY,
		&n.CreatedAt, &n.UpdatedAt, &n.Level, &n.Depth, &isItem, &isUniverse,
		&n.ParentID, &n.ChildCount, &n.Summary, &n.Emoji, &processed,
		&n.ConversationID, &n.SequenceIndex, &isPinned, &n.Source,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}

	n.Type = models.NodeType(nodeType)
	n.IsItem = isItem
	n.IsUniverse = isUniverse
	n.IsPinned = isPinned
	n.IsProcessed = processed
	return &n, nil
}
