package activity

import (
	"time"

	"botsy-widget-be/pkg/widget/schedule"
	"botsy-widget-be/pkg/widget/session"
)

// Rotator is the controller-side hook the tracker fires whenever the session
// may have expired.
type Rotator interface {
	RotateIfExpired()
}

// Tracker binds page lifecycle signals to the session store and runs a
// periodic sweep so an idle-but-open tab still expires without any visitor
// interaction.
type Tracker struct {
	store    *session.Store
	tenantId string
	rotator  Rotator
	sweep    *schedule.Task
}

func NewTracker(store *session.Store, tenantId string, rotator Rotator, sweepInterval time.Duration) *Tracker {
	t := &Tracker{
		store:    store,
		tenantId: tenantId,
		rotator:  rotator,
	}
	t.sweep = schedule.NewTask(sweepInterval, rotator.RotateIfExpired)
	return t
}

// Start begins the background sweep. It runs regardless of panel state.
func (t *Tracker) Start() {
	t.sweep.Start()
}

func (t *Tracker) Stop() {
	t.sweep.Stop()
}

// OnHidden records a departure. Called on visibility change to hidden and on
// page unload.
func (t *Tracker) OnHidden() {
	t.store.RecordDeparture(t.tenantId)
}

// OnVisible checks for expiry first, then re-resolves: coming back to the tab
// is presence, so the departure stamp is cleared and lastActivityAt restarts
// from now.
func (t *Tracker) OnVisible() {
	t.rotator.RotateIfExpired()
	t.store.Resolve(t.tenantId)
}

// OnActivity stamps activity. Called on widget open and on every outbound
// send.
func (t *Tracker) OnActivity() {
	t.store.RecordActivity(t.tenantId)
}
