package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Presence is a live-visitor record for the agent dashboard. Entries expire
// on their own; a visitor that stops chatting simply ages out.
type Presence struct {
	SessionId    string
	LastSeenAt   time.Time
	IsManualMode bool
}

type PresenceRepository struct {
	cache *cache.Cache
}

func NewPresenceRepository() *PresenceRepository {
	// 5 minute presence TTL, purge sweep every minute
	c := cache.New(5*time.Minute, 1*time.Minute)
	return &PresenceRepository{
		cache: c,
	}
}

func presenceKey(tenantId uuid.UUID, sessionId string) string {
	return fmt.Sprintf("%s|%s", tenantId, sessionId)
}

func (r *PresenceRepository) Touch(tenantId uuid.UUID, sessionId string, isManualMode bool) {
	r.cache.Set(presenceKey(tenantId, sessionId), &Presence{
		SessionId:    sessionId,
		LastSeenAt:   time.Now(),
		IsManualMode: isManualMode,
	}, cache.DefaultExpiration)
}

func (r *PresenceRepository) GetByTenant(tenantId uuid.UUID) []*Presence {
	prefix := tenantId.String() + "|"
	var result []*Presence
	for key, item := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			if p, ok := item.Object.(*Presence); ok {
				result = append(result, p)
			}
		}
	}
	return result
}

func (r *PresenceRepository) Remove(tenantId uuid.UUID, sessionId string) {
	r.cache.Delete(presenceKey(tenantId, sessionId))
}
