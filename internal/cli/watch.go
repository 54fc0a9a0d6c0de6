package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the knowledge base whenever one of its files changes",
	Long: `Keep the engine running and swap in a new snapshot each time a layer
or patch file changes. A file that fails to load or resolve is logged and the
previous snapshot stays active.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		debounce, _ := cmd.Flags().GetDuration("debounce")
		if debounce == 0 {
			debounce = rt.cfg.Knowledge.Debounce
		}
		rt.log.Info("watching knowledge base", zap.Duration("debounce", debounce))

		if err := rt.engine.Watch(ctx, debounce); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		rt.log.Info("watcher stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 0, "quiet period before reloading (default from config)")
}
