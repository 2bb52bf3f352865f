package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/appcontext"
	"github.com/spf13/cobra"
)

// newSweepCmd 手動執行一次 finalization sweep，serve 內已定期執行
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete pending cart finalizations once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, logger := loadRuntime()

			app, err := appcontext.NewSweepContext(cmd.Context(), cf, logger)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = app.Shutdown(ctx)
			}()

			result, err := app.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "done=%d orphaned=%d skipped=%d failed=%d\n",
				result.Done, result.Orphaned, result.Skipped, result.Failed)
			return nil
		},
	}
}
