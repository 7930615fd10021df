package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hellonolen/triopia-mail/internal/config"
	"github.com/hellonolen/triopia-mail/internal/feed"
	"github.com/hellonolen/triopia-mail/internal/logging"
	"github.com/hellonolen/triopia-mail/internal/navtui"
	"github.com/hellonolen/triopia-mail/internal/reconcile"
)

func init() {
	rootCmd.AddCommand(uiCmd)
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the sidebar UI",
	Long:  "Launch the terminal sidebar with live unread badges from the push feed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runUI(cmd.Context(), cfg)
	},
}

func runUI(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	center := reconcile.NewCenter()
	reconciler := reconcile.New(a.navStore, center)

	client := feed.NewClient(feed.Config{
		Addr:              cfg.Feed.Addr,
		ClientID:          "triomail-" + uuid.NewString(),
		DialTimeout:       cfg.Feed.DialTimeout,
		ReconnectInterval: cfg.Feed.ReconnectInterval,
	}, reconciler)

	if err := client.Start(ctx); err != nil {
		// The UI still works without live badges.
		logger := logging.Component("cli")
		logger.Warn().Err(err).Msg("feed client failed to start")
	}
	defer func() {
		client.Stop()
		reconciler.Teardown()
	}()

	return navtui.Run(navtui.Config{
		Store:      a.navStore,
		Center:     center,
		Reconciler: reconciler,
	})
}
