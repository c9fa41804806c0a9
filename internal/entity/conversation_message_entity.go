package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConversationMessage is one entry in the authoritative message log.
// IsManual marks assistant messages authored by a human agent; the widget's
// poll path imports only those.
type ConversationMessage struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	IsManual       bool
	CreatedAt      time.Time
}
