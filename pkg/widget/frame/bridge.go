package frame

import (
	"encoding/json"
	"fmt"
)

// The postMessage contract between the embedded widget frame and its host
// page. A closed set of types; anything else is rejected.
const (
	EventState    = "botsy-state"
	EventPosition = "botsy-position"
	EventSize     = "botsy-size"
	CommandToggle = "botsy-toggle"
)

// Event is an outbound frame-to-host notification.
type Event struct {
	Type     string `json:"type"`
	IsOpen   bool   `json:"isOpen,omitempty"`
	Position string `json:"position,omitempty"`
	Size     string `json:"size,omitempty"`
}

func NewStateEvent(isOpen bool) Event {
	return Event{Type: EventState, IsOpen: isOpen}
}

func NewPositionEvent(position string) Event {
	return Event{Type: EventPosition, Position: position}
}

func NewSizeEvent(size string) Event {
	return Event{Type: EventSize, Size: size}
}

// Poster delivers events to the host page. The embedded build posts across
// the frame boundary; tests capture.
type Poster interface {
	Post(event Event)
}

// Command is the single inbound control message the host page may send.
type Command struct {
	Type   string `json:"type"`
	IsOpen bool   `json:"isOpen"`
}

// ParseCommand decodes an inbound host message, rejecting unknown types.
func ParseCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("malformed frame command: %w", err)
	}
	if cmd.Type != CommandToggle {
		return nil, fmt.Errorf("unknown frame command type: %q", cmd.Type)
	}
	return &cmd, nil
}
