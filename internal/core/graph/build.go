package graph

import (
	"github.com/google/uuid"

	"github.com/mycelica/mycimport/internal/core/models"
	"github.com/mycelica/mycimport/pkg/claudeexport"
)

// Group is one conversation's slice of the graph
type Group struct {
	Container models.Node
	Items     []models.Node
	Edges     []models.Edge

	// Timestamps present in the export that could not be parsed and were
	// written as the current time
	BadTimestamps []string
}

// Graph is the layered node/edge set for a whole export, in input order
type Graph struct {
	Strategy string
	Policy   WritePolicy
	Groups   []Group
}

// BuildGraph expands every conversation with the given strategy. Conversation
// i of n sits at slot i of the outer ring; conversations without a uuid get a
// random one.
func BuildGraph(conversations []claudeexport.Conversation, strategy Strategy, layout Layout) *Graph {
	g := &Graph{
		Strategy: strategy.Name(),
		Policy:   strategy.Policy(),
		Groups:   make([]Group, 0, len(conversations)),
	}

	n := len(conversations)
	for i, conv := range conversations {
		if conv.UUID == "" {
			conv.UUID = uuid.NewString()
		}
		center := layout.ConversationPosition(i, n)
		grp := strategy.Expand(conv, center, layout)
		grp.BadTimestamps = badTimestamps(conv)
		g.Groups = append(g.Groups, grp)
	}

	return g
}

func badTimestamps(conv claudeexport.Conversation) []string {
	values := []string{conv.CreatedAt, conv.UpdatedAt}
	for _, msg := range conv.Messages {
		values = append(values, msg.CreatedAt, msg.UpdatedAt)
	}

	var bad []string
	for _, ts := range values {
		if ts == "" {
			continue
		}
		if _, ok := claudeexport.ParseTime(ts); !ok {
			bad = append(bad, ts)
		}
	}
	return bad
}

// Nodes returns containers and items, each container before its items
func (g *Graph) Nodes() []models.Node {
	var nodes []models.Node
	for _, grp := range g.Groups {
		nodes = append(nodes, grp.Container)
		nodes = append(nodes, grp.Items...)
	}
	return nodes
}

// Edges returns every edge in the graph
func (g *Graph) Edges() []models.Edge {
	var edges []models.Edge
	for _, grp := range g.Groups {
		edges = append(edges, grp.Edges...)
	}
	return edges
}
