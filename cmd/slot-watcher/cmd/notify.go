package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/slot-watcher/internal/notify"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const notifyCmdTimeout = time.Minute

func testNotifyCmd() *cobra.Command {
	var targetID string

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a connectivity test message",
		Long: "Sends one test message per selected target through the configured\n" +
			"channel. No page is fetched and no state is touched.",
		Example: `  slot-watcher test-notify
  slot-watcher test-notify --target azabu`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withNotifier(targetID, func(ctx context.Context, a *app, p notify.Page) []domain.NotificationEvent {
				at := time.Now().In(a.loc)
				return []domain.NotificationEvent{
					a.engine.Dispatch(ctx, domain.NotifyTest, notify.TestMessage(p, at)),
				}
			})
		},
	}

	cmd.Flags().StringVar(&targetID, "target", "", "only notify for this target")
	return cmd
}

func simulateCmd() *cobra.Command {
	var targetID string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send a simulated opening announcement and calendar",
		Long: "Sends the first-opened message followed by a slot update built from\n" +
			"dummy data, both marked as a drill, so subscribers can see what an\n" +
			"opening looks like.",
		Example: `  slot-watcher simulate --target azabu`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withNotifier(targetID, func(ctx context.Context, a *app, p notify.Page) []domain.NotificationEvent {
				at := time.Now().In(a.loc)
				return []domain.NotificationEvent{
					a.engine.Dispatch(ctx, domain.NotifyFirstOpened, notify.SimulatedFirstOpenedMessage(p, at)),
					a.engine.Dispatch(ctx, domain.NotifySlotUpdate, notify.SimulatedUpdateMessage(p, at)),
				}
			})
		},
	}

	cmd.Flags().StringVar(&targetID, "target", "", "only simulate for this target")
	return cmd
}

// withNotifier runs send for each selected target and fails if any
// message was not delivered.
func withNotifier(
	targetID string,
	send func(ctx context.Context, a *app, p notify.Page) []domain.NotificationEvent,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), notifyCmdTimeout)
	defer cancel()

	a, err := newApp(ctx, appOptions{memoryStore: true})
	if err != nil {
		return err
	}
	defer a.close()

	targets, err := a.targets(targetID)
	if err != nil {
		return err
	}

	failed := 0
	for _, t := range targets {
		for _, ev := range send(ctx, a, notify.PageOf(t)) {
			if !ev.Delivered {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d notification(s) failed", failed)
	}
	return nil
}
