package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"botsy-widget-be/internal/constant"
	"botsy-widget-be/pkg/widget/activity"
	"botsy-widget-be/pkg/widget/frame"
	"botsy-widget-be/pkg/widget/schedule"
	"botsy-widget-be/pkg/widget/session"
	"botsy-widget-be/pkg/widget/transcript"
	"botsy-widget-be/pkg/widget/transport"
)

// State is the widget's lifecycle position. Transitions happen only inside
// this package, so polling while closed or sending before mount cannot be
// expressed.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReadyClosed
	StateReadyOpen
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReadyClosed:
		return "ready_closed"
	case StateReadyOpen:
		return "ready_open"
	default:
		return "unknown"
	}
}

// SendFailureMessage is appended to the transcript when a send fails. The
// visitor retries by resending; there is no automatic retry.
const SendFailureMessage = "Sorry, something went wrong. Please try sending that again."

var (
	ErrNotOpen      = errors.New("widget panel is not open")
	ErrSendInFlight = errors.New("a send is already in flight")
	ErrNotMounted   = errors.New("widget is not mounted")
)

// Options tunes the controller's timers.
type Options struct {
	PollInterval       time.Duration
	ConfigSyncInterval time.Duration
	SweepInterval      time.Duration
}

// Controller orchestrates the session store, activity tracker, reconciler and
// transport into the widget's state machine. All externally callable methods
// are safe for concurrent use; the browser build drives them from a single
// event loop, tests drive them directly.
type Controller struct {
	tenantId string
	api      transport.Client
	store    *session.Store
	poster   frame.Poster
	tracker  *activity.Tracker

	pollTask   *schedule.Task
	configTask *schedule.Task

	mu         sync.Mutex
	state      State
	disabled   bool
	epoch      int
	sending    bool
	sessionId  string
	cfg        *transport.Config
	manualMode bool
	emailOffer bool
	transcript *transcript.Transcript
	reconciler *transcript.Reconciler
}

func New(tenantId string, api transport.Client, store *session.Store, poster frame.Poster, opts Options) *Controller {
	c := &Controller{
		tenantId:   tenantId,
		api:        api,
		store:      store,
		poster:     poster,
		transcript: transcript.New(),
		reconciler: transcript.NewReconciler(),
	}
	c.tracker = activity.NewTracker(store, tenantId, c, opts.SweepInterval)
	c.pollTask = schedule.NewTask(opts.PollInterval, func() {
		c.PollOnce(context.Background())
	})
	c.configTask = schedule.NewTask(opts.ConfigSyncInterval, func() {
		c.SyncConfigOnce(context.Background())
	})
	return c
}

// Mount loads the tenant config, resolves the initial session and seeds the
// transcript. A config failure is fatal for this mount and surfaces to the
// caller; nothing else in the lifecycle returns errors to the host page.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return errors.New("widget already mounted")
	}
	c.state = StateLoading
	c.mu.Unlock()

	cfg, err := c.api.FetchConfig(ctx, c.tenantId)
	if err != nil {
		c.mu.Lock()
		c.state = StateUninitialized
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = cfg
	if !cfg.IsEnabled {
		// Disabled tenant collapses the widget entirely.
		c.disabled = true
		c.state = StateReadyClosed
		return nil
	}

	id, _ := c.store.Resolve(c.tenantId)
	c.sessionId = id
	c.seedTranscriptLocked()
	c.state = StateReadyClosed

	c.tracker.Start()
	c.configTask.Start()

	c.post(frame.NewPositionEvent(cfg.Position))
	c.post(frame.NewSizeEvent(cfg.Size))
	c.post(frame.NewStateEvent(false))
	return nil
}

// Unmount stops every timer. In-flight requests finish on their own and are
// discarded by the epoch check.
func (c *Controller) Unmount() {
	c.pollTask.Stop()
	c.configTask.Stop()
	c.tracker.Stop()
}

// Open starts the polling loop and counts as visitor activity.
func (c *Controller) Open() {
	c.mu.Lock()
	if c.disabled || c.state != StateReadyClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateReadyOpen
	c.mu.Unlock()

	c.tracker.OnActivity()
	c.pollTask.Start()
	c.post(frame.NewStateEvent(true))
}

// Close stops the polling loop.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.state != StateReadyOpen {
		c.mu.Unlock()
		return
	}
	c.state = StateReadyClosed
	c.mu.Unlock()

	c.pollTask.Stop()
	c.post(frame.NewStateEvent(false))
}

// Send runs one outbound turn: optimistic local append, network call, then a
// response-gated assistant append. A latch rejects double submission. All
// transport failures become a transcript entry, never an error to the host.
func (c *Controller) Send(ctx context.Context, message string) error {
	c.mu.Lock()
	if c.state != StateReadyOpen {
		c.mu.Unlock()
		return ErrNotOpen
	}
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.sending = true
	epoch := c.epoch
	sessionId := c.sessionId
	c.transcript.Append(transcript.RoleUser, message)
	c.mu.Unlock()

	c.tracker.OnActivity()

	reply, err := c.api.SendChat(ctx, c.tenantId, sessionId, message)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false

	// The session rotated while we were in flight; this result belongs to a
	// conversation that no longer exists locally.
	if epoch != c.epoch {
		return nil
	}

	if err != nil {
		c.transcript.Append(transcript.RoleAssistant, SendFailureMessage)
		return nil
	}

	if reply.IsManualMode {
		c.manualMode = true
		if !reply.Escalated {
			// A human agent owns this conversation; their reply arrives via
			// the poll path, not this response.
			return nil
		}
	}

	text := reply.Reply
	if strings.Contains(text, constant.EmailSummaryMarker) {
		c.emailOffer = true
		text = strings.ReplaceAll(text, constant.EmailSummaryMarker, "")
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, constant.HandoffMarker, ""))
	if text != "" {
		c.transcript.Append(transcript.RoleAssistant, text)
	}
	return nil
}

// PollOnce runs one reconciliation tick. Failures are silent; the cursor only
// advances on a successful merge, so the same range is retried next tick.
func (c *Controller) PollOnce(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateReadyOpen {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	sessionId := c.sessionId
	c.mu.Unlock()

	history, err := c.api.FetchHistory(ctx, c.tenantId, sessionId)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || c.state != StateReadyOpen {
		return
	}
	c.manualMode = history.IsManualMode
	c.reconciler.Merge(c.transcript, history.Messages)
}

// SyncConfigOnce refreshes presentation fields. It never touches the session
// or the transcript; a disabled flag collapses the widget.
func (c *Controller) SyncConfigOnce(ctx context.Context) {
	cfg, err := c.api.FetchConfig(ctx, c.tenantId)
	if err != nil {
		return
	}

	c.mu.Lock()
	prev := c.cfg
	c.cfg = cfg

	if !cfg.IsEnabled && !c.disabled {
		c.disabled = true
		wasOpen := c.state == StateReadyOpen
		c.state = StateReadyClosed
		c.mu.Unlock()
		if wasOpen {
			c.pollTask.Stop()
		}
		c.post(frame.NewStateEvent(false))
		return
	}
	c.mu.Unlock()

	if prev == nil {
		return
	}
	if prev.Position != cfg.Position {
		c.post(frame.NewPositionEvent(cfg.Position))
	}
	if prev.Size != cfg.Size {
		c.post(frame.NewSizeEvent(cfg.Size))
	}
}

// RotateIfExpired is the sweep and visibility hook: if either expiry window
// has passed, mint a fresh session and hard-reset the transcript. A rotated
// session has no relationship to the old server conversation, so this is a
// clear-and-reseed, never a merge.
func (c *Controller) RotateIfExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUninitialized || c.state == StateLoading || c.disabled {
		return
	}
	if !c.store.Expired(c.tenantId) {
		return
	}

	id, _ := c.store.Resolve(c.tenantId)
	c.epoch++
	c.sessionId = id
	c.manualMode = false
	c.emailOffer = false
	c.seedTranscriptLocked()
}

// RequestEmailSummary asks the backend to mail the transcript. Independent of
// the session engine apart from the session id.
func (c *Controller) RequestEmailSummary(ctx context.Context, email string) error {
	c.mu.Lock()
	if c.state == StateUninitialized || c.state == StateLoading {
		c.mu.Unlock()
		return ErrNotMounted
	}
	sessionId := c.sessionId
	c.emailOffer = false
	c.mu.Unlock()

	return c.api.RequestEmailSummary(ctx, c.tenantId, sessionId, email)
}

// HandleFrameCommand applies the host page's single control surface.
func (c *Controller) HandleFrameCommand(cmd *frame.Command) {
	if cmd == nil || cmd.Type != frame.CommandToggle {
		return
	}
	if cmd.IsOpen {
		c.Open()
	} else {
		c.Close()
	}
}

// OnHidden forwards the page-hide signal.
func (c *Controller) OnHidden() {
	c.tracker.OnHidden()
}

// OnVisible forwards the page-show signal.
func (c *Controller) OnVisible() {
	c.tracker.OnVisible()
}

// --- accessors ---

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

func (c *Controller) SessionId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionId
}

func (c *Controller) Epoch() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Controller) ManualMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualMode
}

// EmailOfferPending reports whether the model offered an emailed transcript.
func (c *Controller) EmailOfferPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emailOffer
}

func (c *Controller) Messages() []transcript.Message {
	return c.transcript.Messages()
}

// Cursor exposes the reconciler's log position.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconciler.Cursor()
}

func (c *Controller) Config() *transport.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// --- internals ---

// seedTranscriptLocked wipes the transcript and reseeds the greeting.
// Caller holds c.mu.
func (c *Controller) seedTranscriptLocked() {
	c.transcript.Clear()
	c.reconciler.Reset()
	if c.cfg != nil && c.cfg.Greeting != "" {
		c.transcript.Append(transcript.RoleAssistant, c.cfg.Greeting)
	}
}

func (c *Controller) post(event frame.Event) {
	if c.poster != nil {
		c.poster.Post(event)
	}
}
