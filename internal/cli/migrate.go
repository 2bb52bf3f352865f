package cli

import (
	"fmt"
	"strconv"

	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the relational schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.MigrateUp(migrateURL()); err != nil {
				return err
			}
			return printVersion(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			if err := db.MigrateDown(migrateURL(), steps); err != nil {
				return err
			}
			return printVersion(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd)
		},
	})
	return cmd
}

func migrateURL() string {
	cf, _ := loadRuntime()
	return db.GetMigrateURL(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
}

func printVersion(cmd *cobra.Command) error {
	version, dirty, err := db.MigrateVersion(migrateURL())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
	return nil
}
