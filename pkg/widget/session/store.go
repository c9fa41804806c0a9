package session

import (
	"fmt"
	"strconv"
	"time"

	"botsy-widget-be/pkg/widget/storage"

	"github.com/google/uuid"
)

// Clock abstracts time so expiry windows can be tested with a synthetic
// clock instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// Store answers "what is the current session identity, and should it be
// reset?" from client-persisted state alone. Two independent expiry triggers:
// the inactivity window measures idle time with the tab present, the away
// window measures time since the visitor left the page.
type Store struct {
	repo             storage.Repository
	clock            Clock
	inactivityWindow time.Duration
	awayWindow       time.Duration
}

func NewStore(repo storage.Repository, clock Clock, inactivityWindow, awayWindow time.Duration) *Store {
	return &Store{
		repo:             repo,
		clock:            clock,
		inactivityWindow: inactivityWindow,
		awayWindow:       awayWindow,
	}
}

// Storage keys are tenant-scoped so multiple widgets can coexist in one
// browser profile.
func sessionKey(tenantId string) string    { return "botsy_session_" + tenantId }
func lastActiveKey(tenantId string) string { return "botsy_last_active_" + tenantId }
func leftAtKey(tenantId string) string     { return "botsy_left_at_" + tenantId }

// Resolve returns the live session id, minting a fresh one when either expiry
// window is exceeded or stored state is missing/corrupt. Resolving implies
// the visitor is present: leftAt is always cleared and lastActivityAt is
// always stamped. The second return reports whether the id changed.
func (s *Store) Resolve(tenantId string) (string, bool) {
	now := s.clock.Now()

	current, hasSession := s.repo.Get(sessionKey(tenantId))
	discard := !hasSession || current == ""

	if !discard {
		if lastActive, ok := s.readTimestamp(lastActiveKey(tenantId)); ok {
			if now.Sub(lastActive) > s.inactivityWindow {
				discard = true
			}
		} else if _, present := s.repo.Get(lastActiveKey(tenantId)); present {
			// Unparseable timestamp. Trust nothing.
			discard = true
		}
	}

	if !discard {
		if leftAt, ok := s.readTimestamp(leftAtKey(tenantId)); ok {
			if now.Sub(leftAt) > s.awayWindow {
				discard = true
			}
		} else if _, present := s.repo.Get(leftAtKey(tenantId)); present {
			discard = true
		}
	}

	id := current
	if discard {
		id = mintSessionId(now)
		s.repo.Set(sessionKey(tenantId), id)
	}

	s.repo.Remove(leftAtKey(tenantId))
	s.writeTimestamp(lastActiveKey(tenantId), now)

	return id, discard
}

// Expired reports whether the stored session would be discarded by a Resolve
// call right now, without mutating anything. The background sweep uses this
// so checking for expiry does not itself count as presence.
func (s *Store) Expired(tenantId string) bool {
	now := s.clock.Now()

	current, hasSession := s.repo.Get(sessionKey(tenantId))
	if !hasSession || current == "" {
		return false
	}

	if lastActive, ok := s.readTimestamp(lastActiveKey(tenantId)); ok {
		if now.Sub(lastActive) > s.inactivityWindow {
			return true
		}
	} else if _, present := s.repo.Get(lastActiveKey(tenantId)); present {
		return true
	}

	if leftAt, ok := s.readTimestamp(leftAtKey(tenantId)); ok {
		if now.Sub(leftAt) > s.awayWindow {
			return true
		}
	} else if _, present := s.repo.Get(leftAtKey(tenantId)); present {
		return true
	}

	return false
}

// RecordActivity stamps lastActivityAt without touching the session id.
func (s *Store) RecordActivity(tenantId string) {
	s.writeTimestamp(lastActiveKey(tenantId), s.clock.Now())
}

// RecordDeparture stamps leftAt, called on page-hide and unload.
func (s *Store) RecordDeparture(tenantId string) {
	s.writeTimestamp(leftAtKey(tenantId), s.clock.Now())
}

func (s *Store) readTimestamp(key string) (time.Time, bool) {
	raw, found := s.repo.Get(key)
	if !found {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func (s *Store) writeTimestamp(key string, t time.Time) {
	s.repo.Set(key, strconv.FormatInt(t.UnixMilli(), 10))
}

func mintSessionId(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
