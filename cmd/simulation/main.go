package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"botsy-widget-be/pkg/widget/controller"
	"botsy-widget-be/pkg/widget/frame"
	"botsy-widget-be/pkg/widget/session"
	"botsy-widget-be/pkg/widget/storage"
	"botsy-widget-be/pkg/widget/transport"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000"

// stdoutPoster prints frame events the way a host page would receive them.
type stdoutPoster struct{}

func (stdoutPoster) Post(event frame.Event) {
	color.HiBlack("  [frame] %s isOpen=%v position=%s size=%s", event.Type, event.IsOpen, event.Position, event.Size)
}

func main() {
	tenantId := os.Getenv("SIM_TENANT_ID")
	if tenantId == "" {
		log.Fatal("SIM_TENANT_ID is required")
	}

	fmt.Println("=== Widget Engine Simulation Client ===")
	fmt.Printf("Tenant: %s\n", tenantId)

	store := session.NewStore(
		storage.NewMemoryRepository(),
		session.SystemClock(),
		60*time.Minute,
		15*time.Minute,
	)

	ctrl := controller.New(tenantId, transport.NewHTTPClient(baseURL), store, stdoutPoster{}, controller.Options{
		PollInterval:       3 * time.Second,
		ConfigSyncInterval: 30 * time.Second,
		SweepInterval:      60 * time.Second,
	})

	ctx := context.Background()
	if err := ctrl.Mount(ctx); err != nil {
		log.Fatalf("Mount failed: %v", err)
	}
	defer ctrl.Unmount()

	if ctrl.Disabled() {
		color.Red("Widget is disabled for this tenant")
		return
	}

	ctrl.Open()
	printTranscript(ctrl)

	testCases := []string{
		"Hi, what are your opening hours?",
		"I would like to talk to a human please",
	}

	for _, text := range testCases {
		color.Cyan("\nVISITOR: %s", text)

		start := time.Now()
		err := ctrl.Send(ctx, text)
		elapsed := time.Since(start)

		if err != nil {
			color.Red("Error: %v", err)
			continue
		}
		color.HiBlack("  (round trip %v, manual=%v)", elapsed, ctrl.ManualMode())
		printTranscript(ctrl)
	}

	if ctrl.ManualMode() {
		color.Yellow("\nConversation is in manual mode. Polling for agent replies for 30s...")
		deadline := time.Now().Add(30 * time.Second)
		for time.Now().Before(deadline) {
			before := len(ctrl.Messages())
			ctrl.PollOnce(ctx)
			if len(ctrl.Messages()) > before {
				printTranscript(ctrl)
			}
			time.Sleep(3 * time.Second)
		}
	}

	ctrl.Close()
}

func printTranscript(ctrl *controller.Controller) {
	fmt.Println("--- transcript ---")
	for _, m := range ctrl.Messages() {
		switch {
		case m.IsManual:
			color.Yellow("AGENT: %s", m.Content)
		case m.Role == "user":
			color.Cyan("VISITOR: %s", m.Content)
		default:
			color.Green("BOT: %s", m.Content)
		}
	}
}
