package cli

import (
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/devstore/internal/config"
	"github.com/RoyceAzure/lab/devstore/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devstore",
		Short:         "Cart, checkout and order service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newSweepCmd())
	return cmd
}

func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// loadRuntime 設定與 logger 在所有子命令共用
func loadRuntime() (*config.Config, *zerolog.Logger) {
	cf := config.GetConfig()
	l := logger.New(cf.ServiceName, cf.LogLevel, cf.LogFormat)
	return cf, &l
}
