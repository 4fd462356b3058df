// Package claudeexport decodes conversation exports (conversations.json)
// produced by the Claude web app.
package claudeexport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Conversation is one record of the export array
type Conversation struct {
	UUID      string
	Name      string
	Summary   string
	CreatedAt string // Raw ISO-8601, see ParseTimestamp
	UpdatedAt string
	Messages  []Message
}

// Message is one turn of a conversation with its text already normalized
type Message struct {
	UUID      string
	Sender    string // "human", "assistant", anything else is treated as non-human
	Body      string
	CreatedAt string
	UpdatedAt string
}

// Sender values used by the export
const (
	SenderHuman     = "human"
	SenderAssistant = "assistant"
)

// IsHuman reports whether the message was written by the user
func (m Message) IsHuman() bool {
	return m.Sender == SenderHuman
}

// IsAssistant reports whether the message is a model reply
func (m Message) IsAssistant() bool {
	return m.Sender == SenderAssistant
}

// HumanCount returns the number of human messages in the conversation
func (c Conversation) HumanCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.IsHuman() {
			n++
		}
	}
	return n
}

type rawConversation struct {
	UUID         string       `json:"uuid"`
	Name         string       `json:"name"`
	Summary      string       `json:"summary"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
	ChatMessages []rawMessage `json:"chat_messages"`
}

type rawMessage struct {
	UUID      string         `json:"uuid"`
	Sender    string         `json:"sender"`
	Text      string         `json:"text"`
	Content   []contentBlock `json:"content"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// body picks the message text: the flat text field when set, otherwise the
// first content block.
func (r rawMessage) body() string {
	if r.Text != "" {
		return r.Text
	}
	if len(r.Content) > 0 {
		return r.Content[0].Text
	}
	return ""
}

// ParseFile reads and decodes an export file
func ParseFile(path string) ([]Conversation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file)
}

// Parse decodes a JSON array of conversations
func Parse(r io.Reader) ([]Conversation, error) {
	var raw []rawConversation
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse conversations JSON: %w", err)
	}

	conversations := make([]Conversation, 0, len(raw))
	for _, rc := range raw {
		conv := Conversation{
			UUID:      rc.UUID,
			Name:      rc.Name,
			Summary:   rc.Summary,
			CreatedAt: rc.CreatedAt,
			UpdatedAt: rc.UpdatedAt,
			Messages:  make([]Message, 0, len(rc.ChatMessages)),
		}
		for _, rm := range rc.ChatMessages {
			conv.Messages = append(conv.Messages, Message{
				UUID:      rm.UUID,
				Sender:    rm.Sender,
				Body:      rm.body(),
				CreatedAt: rm.CreatedAt,
				UpdatedAt: rm.UpdatedAt,
			})
		}
		conversations = append(conversations, conv)
	}

	return conversations, nil
}
