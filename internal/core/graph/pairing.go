package graph

import (
	"github.com/mycelica/mycimport/pkg/claudeexport"
)

const noResponse = "*No response*"

// Exchange is a human turn paired with the reply that follows it, or a
// standalone non-human message.
type Exchange struct {
	Title     string
	Content   string
	CreatedAt int64 // Unix millis
}

// PairMessages groups consecutive human + assistant messages into exchanges.
// Order is preserved and every message lands in exactly one exchange.
func PairMessages(messages []claudeexport.Message) []Exchange {
	exchanges := make([]Exchange, 0, len(messages))

	for i := 0; i < len(messages); i++ {
		msg := messages[i]

		if !msg.IsHuman() {
			// Orphan assistant (or system) message
			titleSource := "Response"
			if msg.Body != "" {
				titleSource = prefix(msg.Body, messageTitleLen)
			}
			exchanges = append(exchanges, Exchange{
				Title:     ExchangeTitle(titleSource),
				Content:   "Assistant: " + msg.Body,
				CreatedAt: claudeexport.ParseTimestamp(msg.CreatedAt),
			})
			continue
		}

		reply := noResponse
		if i+1 < len(messages) && messages[i+1].IsAssistant() {
			i++
			reply = messages[i].Body
		}

		exchanges = append(exchanges, Exchange{
			Title:     ExchangeTitle(msg.Body),
			Content:   "Human: " + msg.Body + "\n\nAssistant: " + reply,
			CreatedAt: claudeexport.ParseTimestamp(msg.CreatedAt),
		})
	}

	return exchanges
}
