package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"botsy-widget-be/pkg/widget/frame"
	"botsy-widget-be/pkg/widget/session"
	"botsy-widget-be/pkg/widget/storage"
	"botsy-widget-be/pkg/widget/transcript"
	"botsy-widget-be/pkg/widget/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAPI struct {
	mu         sync.Mutex
	config     transport.Config
	configErr  error
	chatReply  transport.ChatReply
	chatErr    error
	history    transport.History
	historyErr error

	// When set, SendChat blocks until the channel is closed.
	sendGate chan struct{}

	chatCalls int
}

func (f *fakeAPI) FetchConfig(ctx context.Context, tenantId string) (*transport.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configErr != nil {
		return nil, f.configErr
	}
	cfg := f.config
	return &cfg, nil
}

func (f *fakeAPI) SendChat(ctx context.Context, tenantId, sessionId, message string) (*transport.ChatReply, error) {
	f.mu.Lock()
	gate := f.sendGate
	f.chatCalls++
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	reply := f.chatReply
	return &reply, nil
}

func (f *fakeAPI) FetchHistory(ctx context.Context, tenantId, sessionId string) (*transport.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	history := f.history
	return &history, nil
}

func (f *fakeAPI) RequestEmailSummary(ctx context.Context, tenantId, sessionId, email string) error {
	return nil
}

type capturePoster struct {
	mu     sync.Mutex
	events []frame.Event
}

func (p *capturePoster) Post(event frame.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePoster) Events() []frame.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]frame.Event, len(p.events))
	copy(out, p.events)
	return out
}

func newTestController(api *fakeAPI) (*Controller, *fakeClock, *capturePoster) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	store := session.NewStore(storage.NewMemoryRepository(), clock, 60*time.Minute, 15*time.Minute)
	poster := &capturePoster{}
	// Long intervals keep timers quiet; ticks are driven manually in tests.
	c := New("tenant-a", api, store, poster, Options{
		PollInterval:       time.Hour,
		ConfigSyncInterval: time.Hour,
		SweepInterval:      time.Hour,
	})
	return c, clock, poster
}

func enabledConfig() transport.Config {
	return transport.Config{
		BotName:   "Botsy",
		Greeting:  "Hi! How can we help?",
		Position:  "bottom-right",
		Size:      "medium",
		IsEnabled: true,
	}
}

func contents(msgs []transcript.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestMountSeedsGreetingAndAnnouncesLayout(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, _, poster := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))

	assert.Equal(t, StateReadyClosed, c.State())
	assert.NotEmpty(t, c.SessionId())
	assert.Equal(t, []string{"Hi! How can we help?"}, contents(c.Messages()))
	assert.Equal(t, 0, c.Cursor())

	events := poster.Events()
	require.Len(t, events, 3)
	assert.Equal(t, frame.EventPosition, events[0].Type)
	assert.Equal(t, frame.EventSize, events[1].Type)
	assert.Equal(t, frame.EventState, events[2].Type)
	assert.False(t, events[2].IsOpen)
}

func TestMountConfigFailureIsFatal(t *testing.T) {
	api := &fakeAPI{configErr: errors.New("boom")}
	c, _, _ := newTestController(api)

	err := c.Mount(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateUninitialized, c.State())
}

func TestDisabledTenantCollapsesAtMount(t *testing.T) {
	cfg := enabledConfig()
	cfg.IsEnabled = false
	api := &fakeAPI{config: cfg}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	assert.True(t, c.Disabled())

	// Open is a no-op on a collapsed widget.
	c.Open()
	assert.Equal(t, StateReadyClosed, c.State())
}

func TestSendAppendsOptimisticAndReply(t *testing.T) {
	api := &fakeAPI{
		config:    enabledConfig(),
		chatReply: transport.ChatReply{Reply: "We open at 9am."},
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	require.NoError(t, c.Send(context.Background(), "When do you open?"))
	assert.Equal(t, []string{
		"Hi! How can we help?",
		"When do you open?",
		"We open at 9am.",
	}, contents(c.Messages()))
}

func TestSendRequiresOpenPanel(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	assert.ErrorIs(t, c.Send(context.Background(), "hello"), ErrNotOpen)
}

func TestManualModeSuppressesReplyAppend(t *testing.T) {
	api := &fakeAPI{
		config:    enabledConfig(),
		chatReply: transport.ChatReply{IsManualMode: true, Escalated: false},
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	require.NoError(t, c.Send(context.Background(), "is my order ready?"))

	// Only greeting + the visitor's own message. The agent's answer comes
	// through the poll path.
	assert.Equal(t, []string{
		"Hi! How can we help?",
		"is my order ready?",
	}, contents(c.Messages()))
	assert.True(t, c.ManualMode())
}

func TestEscalationAckIsAppended(t *testing.T) {
	api := &fakeAPI{
		config: enabledConfig(),
		chatReply: transport.ChatReply{
			Reply:        "Let me connect you with a member of our team.",
			IsManualMode: true,
			Escalated:    true,
		},
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	require.NoError(t, c.Send(context.Background(), "talk to a human"))
	assert.Equal(t, []string{
		"Hi! How can we help?",
		"talk to a human",
		"Let me connect you with a member of our team.",
	}, contents(c.Messages()))
	assert.True(t, c.ManualMode())
}

func TestEmailSummaryMarkerIsStrippedAndFlagged(t *testing.T) {
	api := &fakeAPI{
		config:    enabledConfig(),
		chatReply: transport.ChatReply{Reply: "Glad I could help! [[email-summary]]"},
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	require.NoError(t, c.Send(context.Background(), "thanks, that's all"))
	msgs := c.Messages()
	assert.Equal(t, "Glad I could help!", msgs[len(msgs)-1].Content)
	assert.True(t, c.EmailOfferPending())
}

func TestSendFailureAppendsFailureMessage(t *testing.T) {
	api := &fakeAPI{
		config:  enabledConfig(),
		chatErr: errors.New("network down"),
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	// The failure is converted to a transcript entry, not an error.
	require.NoError(t, c.Send(context.Background(), "hello?"))
	msgs := c.Messages()
	assert.Equal(t, SendFailureMessage, msgs[len(msgs)-1].Content)
}

func TestSendLatchRejectsDoubleSubmission(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		config:    enabledConfig(),
		chatReply: transport.ChatReply{Reply: "done"},
		sendGate:  gate,
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	done := make(chan error, 1)
	go func() {
		done <- c.Send(context.Background(), "first")
	}()

	// Wait for the first send to take the latch.
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.chatCalls == 1
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, c.Send(context.Background(), "second"), ErrSendInFlight)

	close(gate)
	require.NoError(t, <-done)

	// The latch releases after completion.
	api.mu.Lock()
	api.sendGate = nil
	api.mu.Unlock()
	assert.NoError(t, c.Send(context.Background(), "third"))
}

func TestPollMergesManualMessages(t *testing.T) {
	api := &fakeAPI{
		config: enabledConfig(),
		history: transport.History{
			IsManualMode: true,
			Messages: []transcript.ServerMessage{
				{Id: "1", Role: "user", Content: "help"},
				{Id: "2", Role: "assistant", Content: "agent: on it", IsManual: true},
			},
		},
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	c.PollOnce(context.Background())
	assert.Equal(t, []string{
		"Hi! How can we help?",
		"agent: on it",
	}, contents(c.Messages()))
	assert.Equal(t, 2, c.Cursor())
	assert.True(t, c.ManualMode())
}

func TestPollFailureIsSilentAndRetriable(t *testing.T) {
	api := &fakeAPI{
		config:     enabledConfig(),
		historyErr: errors.New("timeout"),
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	c.PollOnce(context.Background())
	assert.Equal(t, 0, c.Cursor())

	// Next tick sees the same range.
	api.mu.Lock()
	api.historyErr = nil
	api.history = transport.History{Messages: []transcript.ServerMessage{
		{Id: "1", Role: "assistant", Content: "agent: back", IsManual: true},
	}}
	api.mu.Unlock()

	c.PollOnce(context.Background())
	assert.Equal(t, 1, c.Cursor())
}

func TestPollWhileClosedIsNoOp(t *testing.T) {
	api := &fakeAPI{
		config: enabledConfig(),
		history: transport.History{Messages: []transcript.ServerMessage{
			{Id: "1", Role: "assistant", Content: "agent: hello?", IsManual: true},
		}},
	}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))

	c.PollOnce(context.Background())
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, []string{"Hi! How can we help?"}, contents(c.Messages()))
}

func TestRotationClearsAndReseeds(t *testing.T) {
	api := &fakeAPI{
		config:    enabledConfig(),
		chatReply: transport.ChatReply{Reply: "sure thing"},
		history: transport.History{Messages: []transcript.ServerMessage{
			{Id: "1", Role: "assistant", Content: "agent: old convo", IsManual: true},
		}},
	}
	c, clock, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()
	require.NoError(t, c.Send(context.Background(), "hello"))
	c.PollOnce(context.Background())

	oldSession := c.SessionId()
	oldEpoch := c.Epoch()
	require.Greater(t, len(c.Messages()), 1)

	clock.Advance(61 * time.Minute)
	c.RotateIfExpired()

	assert.NotEqual(t, oldSession, c.SessionId())
	assert.Equal(t, oldEpoch+1, c.Epoch())
	assert.Equal(t, []string{"Hi! How can we help?"}, contents(c.Messages()))
	assert.Equal(t, 0, c.Cursor())
	assert.False(t, c.ManualMode())
}

func TestRotateIsNoOpUnderWindows(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, clock, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	before := c.SessionId()

	clock.Advance(59 * time.Minute)
	c.RotateIfExpired()

	assert.Equal(t, before, c.SessionId())
	assert.Equal(t, 0, c.Epoch())
}

func TestReturnToTabKeepsSessionAlive(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, clock, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	before := c.SessionId()

	// Hide the tab late in the inactivity window, come straight back.
	clock.Advance(50 * time.Minute)
	c.OnHidden()
	c.OnVisible()

	// 65 minutes after mount, but only 15 since the visitor returned. The
	// sweep must not rotate the transcript out from under them.
	clock.Advance(15 * time.Minute)
	c.RotateIfExpired()

	assert.Equal(t, before, c.SessionId())
	assert.Equal(t, 0, c.Epoch())
}

func TestStaleSendResultIsDiscardedAfterRotation(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		config:    enabledConfig(),
		chatReply: transport.ChatReply{Reply: "stale reply"},
		sendGate:  gate,
	}
	c, clock, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()

	done := make(chan error, 1)
	go func() {
		done <- c.Send(context.Background(), "question before rotation")
	}()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.chatCalls == 1
	}, time.Second, 5*time.Millisecond)

	clock.Advance(61 * time.Minute)
	c.RotateIfExpired()

	close(gate)
	require.NoError(t, <-done)

	// The in-flight reply belonged to the previous epoch; only the fresh
	// greeting survives.
	assert.Equal(t, []string{"Hi! How can we help?"}, contents(c.Messages()))
}

func TestConfigSyncDisableCollapsesOpenWidget(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, _, poster := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))
	c.Open()
	require.Equal(t, StateReadyOpen, c.State())

	api.mu.Lock()
	api.config.IsEnabled = false
	api.mu.Unlock()

	c.SyncConfigOnce(context.Background())
	assert.True(t, c.Disabled())
	assert.Equal(t, StateReadyClosed, c.State())

	events := poster.Events()
	last := events[len(events)-1]
	assert.Equal(t, frame.EventState, last.Type)
	assert.False(t, last.IsOpen)
}

func TestConfigSyncAnnouncesLayoutChanges(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, _, poster := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))

	api.mu.Lock()
	api.config.Position = "bottom-left"
	api.config.Size = "large"
	api.mu.Unlock()

	c.SyncConfigOnce(context.Background())

	events := poster.Events()
	require.GreaterOrEqual(t, len(events), 5)
	assert.Equal(t, frame.Event{Type: frame.EventPosition, Position: "bottom-left"}, events[len(events)-2])
	assert.Equal(t, frame.Event{Type: frame.EventSize, Size: "large"}, events[len(events)-1])
}

func TestFrameToggleDrivesOpenClose(t *testing.T) {
	api := &fakeAPI{config: enabledConfig()}
	c, _, _ := newTestController(api)
	defer c.Unmount()

	require.NoError(t, c.Mount(context.Background()))

	c.HandleFrameCommand(&frame.Command{Type: frame.CommandToggle, IsOpen: true})
	assert.Equal(t, StateReadyOpen, c.State())

	c.HandleFrameCommand(&frame.Command{Type: frame.CommandToggle, IsOpen: false})
	assert.Equal(t, StateReadyClosed, c.State())
}
