package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hellonolen/triopia-mail/internal/feed"
)

func init() {
	feedprobeCmd.Flags().DurationVar(&feedprobeDuration, "duration", 0, "stop after this long (0 runs until interrupted)")
	rootCmd.AddCommand(feedprobeCmd)
}

var feedprobeDuration time.Duration

var feedprobeCmd = &cobra.Command{
	Use:   "feedprobe",
	Short: "Connect to the push feed and print decoded events",
	Long: `feedprobe subscribes to the push feed and prints every decoded event
and connection-state change. Useful for checking feed reachability and
inspecting what the server is sending.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if feedprobeDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, feedprobeDuration)
			defer cancel()
		}

		printer := &eventPrinter{cmd: cmd}
		client := feed.NewClient(feed.Config{
			Addr:              cfg.Feed.Addr,
			ClientID:          "feedprobe-" + uuid.NewString(),
			DialTimeout:       cfg.Feed.DialTimeout,
			ReconnectInterval: cfg.Feed.ReconnectInterval,
		}, printer)

		if err := client.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		client.Stop()
		return nil
	},
}

// eventPrinter implements feed.Handler by echoing everything to stdout.
type eventPrinter struct {
	cmd *cobra.Command
}

func (p *eventPrinter) HandleConnState(state feed.ConnState) {
	fmt.Fprintf(p.cmd.OutOrStdout(), "%s state=%s\n", time.Now().Format(time.RFC3339), state)
}

func (p *eventPrinter) HandleEvent(ev feed.Event) {
	out := p.cmd.OutOrStdout()
	ts := time.Now().Format(time.RFC3339)

	switch e := ev.(type) {
	case feed.NewMail:
		fmt.Fprintf(out, "%s new-mail source=%q from=%q subject=%q\n", ts, e.SourceID, e.From, e.Subject)
	case feed.UnreadSnapshot:
		fmt.Fprintf(out, "%s unread-count source=%q count=%d\n", ts, e.SourceID, e.Count)
	case feed.SyncComplete:
		fmt.Fprintf(out, "%s sync-complete source=%q new=%d\n", ts, e.SourceID, e.NewCount)
	default:
		fmt.Fprintf(out, "%s %s\n", ts, ev.Kind())
	}
}
