package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/appcontext"
	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/db"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load branches, users and products from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, logger := loadRuntime()
			if file == "" {
				file = cf.SeedFile
			}
			data, err := db.LoadSeedFile(file)
			if err != nil {
				return err
			}

			app, err := appcontext.NewStoreContext(cmd.Context(), cf, logger)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = app.Shutdown(ctx)
			}()

			result, err := db.Seed(cmd.Context(), app.UnitOfWork, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d branches, %d users, %d products\n",
				result.Branches, result.Users, result.Products)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Seed file path (defaults to SEED_FILE)")
	return cmd
}
