package transcript

import (
	"strconv"
	"sync"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the visitor's local conversation view. Ids are
// local-only; server messages get a fresh local id on import.
type Message struct {
	Id       string
	Role     string
	Content  string
	IsManual bool
}

// Transcript is the client-held, in-memory conversation view. It is a derived
// mirror of the server log, rebuilt from scratch on session rotation.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	nextId   int
}

func New() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(role, content string) Message {
	return t.append(role, content, false)
}

// AppendManual imports an agent-authored message from the server log.
func (t *Transcript) AppendManual(content string) Message {
	return t.append(RoleAssistant, content, true)
}

func (t *Transcript) append(role, content string, isManual bool) Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextId++
	msg := Message{
		Id:       "local-" + strconv.Itoa(t.nextId),
		Role:     role,
		Content:  content,
		IsManual: isManual,
	}
	t.messages = append(t.messages, msg)
	return msg
}

// ContainsContent reports whether any message matches content exactly. This
// is the dedup primitive: local and server messages share no id scheme, so
// content equality is the only correlation available.
func (t *Transcript) ContainsContent(content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.messages {
		if m.Content == content {
			return true
		}
	}
	return false
}

func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Clear wipes the transcript. Used on session rotation only.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
