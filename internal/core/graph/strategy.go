package graph

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
	"github.com/google/uuid"

	"github.com/mycelica/mycimport/internal/core/models"
	"github.com/mycelica/mycimport/pkg/claudeexport"
)

// WritePolicy says how a strategy's output treats rows from earlier runs
type WritePolicy int

const (
	// PolicySkipExisting aborts when a previous import is detected and skips
	// conversations whose node already exists.
	PolicySkipExisting WritePolicy = iota
	// PolicyReplace clears nodes and edges before inserting.
	PolicyReplace
)

func (p WritePolicy) String() string {
	switch p {
	case PolicySkipExisting:
		return "skip-existing"
	case PolicyReplace:
		return "replace"
	default:
		return fmt.Sprintf("WritePolicy(%d)", int(p))
	}
}

// Strategy names
const (
	StrategyExchanges = "exchanges"
	StrategyMessages  = "messages"
)

// DefaultContainerContent is the container body template for exchange imports
const DefaultContainerContent = "{{exchange_count}} exchanges"

// Strategy turns one conversation into a container node plus its children
type Strategy interface {
	Name() string
	Policy() WritePolicy
	Expand(conv claudeexport.Conversation, center Point, layout Layout) Group
}

// NewStrategy returns the strategy registered under name
func NewStrategy(name, containerContent string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyExchanges, "":
		return NewExchangeStrategy(containerContent)
	case StrategyMessages:
		return MessageStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want %q or %q)", name, StrategyExchanges, StrategyMessages)
	}
}

// ExchangeStrategy emits one item per human/assistant exchange. Items link
// back through conversation_id and carry their sequence index.
type ExchangeStrategy struct {
	content *mustache.Template
}

// NewExchangeStrategy compiles the container content template. An empty
// template selects DefaultContainerContent.
func NewExchangeStrategy(containerContent string) (*ExchangeStrategy, error) {
	if containerContent == "" {
		containerContent = DefaultContainerContent
	}
	tmpl, err := mustache.ParseString(containerContent)
	if err != nil {
		return nil, fmt.Errorf("invalid container content template: %w", err)
	}
	return &ExchangeStrategy{content: tmpl}, nil
}

func (s *ExchangeStrategy) Name() string        { return StrategyExchanges }
func (s *ExchangeStrategy) Policy() WritePolicy { return PolicySkipExisting }

// Expand pairs the conversation's messages and lays the exchanges out
// around the container.
func (s *ExchangeStrategy) Expand(conv claudeexport.Conversation, center Point, layout Layout) Group {
	exchanges := PairMessages(conv.Messages)
	count := len(exchanges)

	createdAt := claudeexport.ParseTimestamp(conv.CreatedAt)
	updatedAt := createdAt
	if conv.UpdatedAt != "" {
		updatedAt = claudeexport.ParseTimestamp(conv.UpdatedAt)
	}

	container := models.Node{
		ID:         conv.UUID,
		Type:       models.NodeTypeContext,
		Title:      titleOrUntitled(conv.Name),
		Content:    models.Ptr(s.renderContent(conv, count)),
		PositionX:  center.X,
		PositionY:  center.Y,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		ChildCount: count,
		Summary:    optional(conv.Summary),
		Emoji:      models.Ptr(models.ConversationEmoji),
		Source:     models.Ptr(models.SourceClaude),
	}

	group := Group{
		Container: container,
		Items:     make([]models.Node, 0, count),
	}

	for idx, ex := range exchanges {
		pos := layout.ChildPosition(center, idx, count)
		group.Items = append(group.Items, models.Node{
			ID:             fmt.Sprintf("%s-ex-%d", conv.UUID, idx),
			Type:           models.NodeTypeThought,
			Title:          ex.Title,
			Content:        models.Ptr(ex.Content),
			PositionX:      pos.X,
			PositionY:      pos.Y,
			CreatedAt:      ex.CreatedAt,
			UpdatedAt:      ex.CreatedAt,
			IsItem:         true,
			Emoji:          models.Ptr(models.ConversationEmoji),
			ConversationID: models.Ptr(conv.UUID),
			SequenceIndex:  models.Ptr(idx),
			Source:         models.Ptr(models.SourceClaude),
		})
	}

	return group
}

func (s *ExchangeStrategy) renderContent(conv claudeexport.Conversation, count int) string {
	out, err := s.content.Render(map[string]interface{}{
		"exchange_count": count,
		"message_count":  len(conv.Messages),
		"name":           conv.Name,
	})
	if err != nil {
		return fmt.Sprintf("%d exchanges", count)
	}
	return out
}

// MessageStrategy emits one item per human message and a contains edge from
// the conversation to each of them. Non-human messages are dropped.
type MessageStrategy struct{}

func (MessageStrategy) Name() string        { return StrategyMessages }
func (MessageStrategy) Policy() WritePolicy { return PolicyReplace }

// Expand places each human message by its index in the full message list,
// so gaps are left where assistant replies were.
func (MessageStrategy) Expand(conv claudeexport.Conversation, center Point, layout Layout) Group {
	group := Group{
		Container: models.Node{
			ID:         conv.UUID,
			Type:       models.NodeTypeContext,
			Title:      titleOrUntitled(conv.Name),
			Content:    optional(conv.Summary),
			PositionX:  center.X,
			PositionY:  center.Y,
			CreatedAt:  claudeexport.ParseTimestamp(conv.CreatedAt),
			UpdatedAt:  claudeexport.ParseTimestamp(conv.UpdatedAt),
			Level:      models.Ptr(models.LevelConversation),
			ChildCount: conv.HumanCount(),
			Source:     models.Ptr(models.SourceClaude),
		},
	}

	for j, msg := range conv.Messages {
		if !msg.IsHuman() {
			continue
		}

		id := msg.UUID
		if id == "" {
			id = fmt.Sprintf("%s-msg-%d", conv.UUID, j)
		}
		pos := layout.ChildPosition(center, j, len(conv.Messages))
		createdAt := claudeexport.ParseTimestamp(msg.CreatedAt)

		group.Items = append(group.Items, models.Node{
			ID:        id,
			Type:      models.NodeTypeThought,
			Title:     MessageTitle(msg.Body),
			Content:   models.Ptr(msg.Body),
			PositionX: pos.X,
			PositionY: pos.Y,
			CreatedAt: createdAt,
			UpdatedAt: claudeexport.ParseTimestamp(msg.UpdatedAt),
			Level:     models.Ptr(models.LevelMessage),
			Depth:     1,
			IsItem:    true,
			ParentID:  models.Ptr(conv.UUID),
			Source:    models.Ptr(models.SourceClaude),
		})
		group.Edges = append(group.Edges, models.Edge{
			ID:        uuid.NewString(),
			SourceID:  conv.UUID,
			TargetID:  id,
			Type:      models.EdgeTypeContains,
			CreatedAt: createdAt,
		})
	}

	return group
}

func titleOrUntitled(name string) string {
	if name == "" {
		return "Untitled"
	}
	return name
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
