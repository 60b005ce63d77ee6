package presentation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type categorizes a displayed message
type Type int

const (
	// TypeUser is the transcription of what the user said.
	TypeUser Type = iota
	// TypeAssistant is the assistant's reply text.
	TypeAssistant
	// TypeStatus is a transient connection or pipeline status line.
	TypeStatus
	// TypeError is a user-facing error notice.
	TypeError
)

// String returns a human-readable type name
func (t Type) String() string {
	switch t {
	case TypeUser:
		return "user"
	case TypeAssistant:
		return "assistant"
	case TypeStatus:
		return "status"
	case TypeError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Message is one typed entry in the presentation queue.
type Message struct {
	ID         string
	Type       Type
	Text       string
	EnqueuedAt time.Time
}

// NewMessage creates a message with a fresh identifier.
func NewMessage(t Type, text string) Message {
	return Message{
		ID:         uuid.NewString(),
		Type:       t,
		Text:       text,
		EnqueuedAt: time.Now(),
	}
}
