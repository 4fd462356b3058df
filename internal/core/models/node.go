package models

import (
	"errors"
)

// NodeType is the type tag stored in nodes.type
type NodeType string

const (
	NodeTypeContext NodeType = "context" // Conversation container
	NodeTypeThought NodeType = "thought" // Exchange or message item
)

// EdgeType is the relation stored in edges.type
type EdgeType string

const (
	EdgeTypeContains EdgeType = "contains"
)

// Hierarchy levels used by the flat message import (L3 Tree, L4 Leaf)
const (
	LevelConversation = 3
	LevelMessage      = 4
)

// ConversationEmoji marks chat-derived nodes
const ConversationEmoji = "💬"

// SourceClaude is written to nodes.source for imported conversations
const SourceClaude = "claude"

// Node represents a row in the nodes table. Timestamps are Unix millis.
type Node struct {
	ID             string
	Type           NodeType
	Title          string
	URL            *string
	Content        *string
	PositionX      float64
	PositionY      float64
	CreatedAt      int64
	UpdatedAt      int64
	ClusterID      *int64
	ClusterLabel   *string
	Level          *int // Flat import only
	Depth          int
	IsItem         bool // Items get clustered downstream, containers do not
	IsUniverse     bool
	ParentID       *string
	ChildCount     int
	AITitle        *string
	Summary        *string
	Tags           *string // JSON string
	Emoji          *string
	IsProcessed    bool
	ConversationID *string // Container this exchange belongs to
	SequenceIndex  *int    // Order within the conversation
	IsPinned       bool
	LastAccessedAt *int64
	Source         *string
}

// Edge represents a row in the edges table
type Edge struct {
	ID        string
	SourceID  string
	TargetID  string
	Type      EdgeType
	Label     *string
	CreatedAt int64
}

// Validate checks if the node has required fields
func (n *Node) Validate() error {
	if n.ID == "" {
		return errors.New("id is required")
	}
	if n.Type == "" {
		return errors.New("type is required")
	}
	if n.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

// Validate checks if the edge has required fields
func (e *Edge) Validate() error {
	if e.ID == "" {
		return errors.New("id is required")
	}
	if e.SourceID == "" || e.TargetID == "" {
		return errors.New("source_id and target_id are required")
	}
	if e.Type == "" {
		return errors.New("type is required")
	}
	return nil
}

// Ptr returns a pointer to v, for the nullable columns
func Ptr[T any](v T) *T {
	return &v
}
