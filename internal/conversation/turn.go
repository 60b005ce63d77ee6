package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in the conversation. Immutable once created.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn with a fresh identifier and the current time.
func NewTurn(role Role, text string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// History is an append-only, chronologically ordered list of turns.
// Oldest turn first. Not safe for concurrent use; the session
// controller is the only writer.
type History struct {
	turns []*Turn
}

// Append adds a turn to the end of the history.
func (h *History) Append(t *Turn) {
	h.turns = append(h.turns, t)
}

// Turns returns a snapshot of the retained turns, oldest first.
func (h *History) Turns() []*Turn {
	out := make([]*Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	return len(h.turns)
}
