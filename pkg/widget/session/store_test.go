package session

import (
	"testing"
	"time"

	"botsy-widget-be/pkg/widget/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	store := NewStore(storage.NewMemoryRepository(), clock, 60*time.Minute, 15*time.Minute)
	return store, clock
}

func TestResolveMintsFreshSession(t *testing.T) {
	store, _ := newTestStore()

	id, rotated := store.Resolve("tenant-a")
	require.NotEmpty(t, id)
	assert.True(t, rotated)
}

func TestResolveIsStableUnderBothWindows(t *testing.T) {
	store, clock := newTestStore()

	first, _ := store.Resolve("tenant-a")

	// Idle for less than the inactivity window, never departed.
	clock.Advance(59 * time.Minute)
	second, rotated := store.Resolve("tenant-a")
	assert.Equal(t, first, second)
	assert.False(t, rotated)

	// Departed and returned within the away window.
	store.RecordDeparture("tenant-a")
	clock.Advance(14 * time.Minute)
	third, rotated := store.Resolve("tenant-a")
	assert.Equal(t, first, third)
	assert.False(t, rotated)
}

func TestIdleExpiryRotatesSession(t *testing.T) {
	store, clock := newTestStore()

	first, _ := store.Resolve("tenant-a")

	// No activity, no departure. T0+61min with a 60min window.
	clock.Advance(61 * time.Minute)
	second, rotated := store.Resolve("tenant-a")
	assert.NotEqual(t, first, second)
	assert.True(t, rotated)
}

func TestAwayExpiryRotatesSession(t *testing.T) {
	store, clock := newTestStore()

	first, _ := store.Resolve("tenant-a")
	store.RecordDeparture("tenant-a")

	// T0+16min with a 15min away window.
	clock.Advance(16 * time.Minute)
	second, rotated := store.Resolve("tenant-a")
	assert.NotEqual(t, first, second)
	assert.True(t, rotated)
}

func TestRecordActivityExtendsInactivityWindow(t *testing.T) {
	store, clock := newTestStore()

	first, _ := store.Resolve("tenant-a")

	clock.Advance(45 * time.Minute)
	store.RecordActivity("tenant-a")

	// 45 + 45 > 60 from creation, but only 45 since last activity.
	clock.Advance(45 * time.Minute)
	second, rotated := store.Resolve("tenant-a")
	assert.Equal(t, first, second)
	assert.False(t, rotated)
}

func TestResolveClearsDeparture(t *testing.T) {
	store, clock := newTestStore()

	first, _ := store.Resolve("tenant-a")
	store.RecordDeparture("tenant-a")

	// Return within the away window. Resolving clears leftAt, so a much
	// later resolve only measures from the new lastActivityAt.
	clock.Advance(10 * time.Minute)
	second, _ := store.Resolve("tenant-a")
	assert.Equal(t, first, second)

	clock.Advance(30 * time.Minute)
	third, rotated := store.Resolve("tenant-a")
	assert.Equal(t, first, third)
	assert.False(t, rotated)
}

func TestExpiredDoesNotMutate(t *testing.T) {
	store, clock := newTestStore()

	first, _ := store.Resolve("tenant-a")

	clock.Advance(61 * time.Minute)
	assert.True(t, store.Expired("tenant-a"))
	// Checking twice must not refresh anything.
	assert.True(t, store.Expired("tenant-a"))

	second, rotated := store.Resolve("tenant-a")
	assert.NotEqual(t, first, second)
	assert.True(t, rotated)
}

func TestExpiredFalseForFreshOrMissingSession(t *testing.T) {
	store, _ := newTestStore()

	assert.False(t, store.Expired("tenant-a"))

	store.Resolve("tenant-a")
	assert.False(t, store.Expired("tenant-a"))
}

func TestResolveStopsAwayClock(t *testing.T) {
	store, clock := newTestStore()

	store.Resolve("tenant-a")
	store.RecordDeparture("tenant-a")
	store.Resolve("tenant-a")

	clock.Advance(20 * time.Minute)
	assert.False(t, store.Expired("tenant-a"))
}

func TestCorruptTimestampMintsFreshSession(t *testing.T) {
	repo := storage.NewMemoryRepository()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	store := NewStore(repo, clock, 60*time.Minute, 15*time.Minute)

	first, _ := store.Resolve("tenant-a")

	repo.Set("botsy_last_active_tenant-a", "not-a-number")
	second, rotated := store.Resolve("tenant-a")
	assert.NotEqual(t, first, second)
	assert.True(t, rotated)
}

func TestTenantsAreIsolated(t *testing.T) {
	store, clock := newTestStore()

	a, _ := store.Resolve("tenant-a")
	b, _ := store.Resolve("tenant-b")
	assert.NotEqual(t, a, b)

	store.RecordDeparture("tenant-a")
	clock.Advance(16 * time.Minute)

	a2, rotatedA := store.Resolve("tenant-a")
	assert.NotEqual(t, a, a2)
	assert.True(t, rotatedA)

	// tenant-b never departed and 16min < inactivity window.
	b2, rotatedB := store.Resolve("tenant-b")
	assert.Equal(t, b, b2)
	assert.False(t, rotatedB)
}
