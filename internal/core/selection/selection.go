// Package selection narrows and orders the conversations of an export before
// they are laid out.
package selection

import (
	"math/rand"
	"strings"
	"time"

	"github.com/mycelica/mycimport/pkg/claudeexport"
)

// Options controls which conversations are imported
type Options struct {
	ExcludeIDs   []string
	NameContains string    // Case-insensitive substring of the conversation name
	Since        time.Time // Zero means no cutoff
	Shuffle      bool
	Seed         int64 // Zero picks a time-based seed
}

// Result is the selected conversations plus counts for reporting
type Result struct {
	Conversations []claudeexport.Conversation
	Excluded      int
	Filtered      int // Dropped by the name filter or the since cutoff
}

// Apply filters conversations and optionally shuffles them. The input slice
// is not modified.
func Apply(conversations []claudeexport.Conversation, opts Options) Result {
	exclude := make(map[string]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		exclude[id] = struct{}{}
	}
	needle := strings.ToLower(opts.NameContains)

	res := Result{Conversations: make([]claudeexport.Conversation, 0, len(conversations))}
	for _, conv := range conversations {
		if _, ok := exclude[conv.UUID]; ok {
			res.Excluded++
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(conv.Name), needle) {
			res.Filtered++
			continue
		}
		if !opts.Since.IsZero() && !createdSince(conv, opts.Since) {
			res.Filtered++
			continue
		}
		res.Conversations = append(res.Conversations, conv)
	}

	if opts.Shuffle {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(res.Conversations), func(i, j int) {
			res.Conversations[i], res.Conversations[j] = res.Conversations[j], res.Conversations[i]
		})
	}

	return res
}

// Conversations with an unparseable created_at are kept
func createdSince(conv claudeexport.Conversation, since time.Time) bool {
	created, ok := claudeexport.ParseTime(conv.CreatedAt)
	if !ok {
		return true
	}
	return !created.Before(since)
}
