package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/appcontext"
	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/db"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the CartCheckedOut consumer and the finalization sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, logger := loadRuntime()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if migrateFirst {
				if err := db.MigrateUp(db.GetMigrateURL(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)); err != nil {
					return err
				}
				logger.Info().Msg("database migrated")
			}

			app, err := appcontext.NewApplicationContext(ctx, cf, logger)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", cf.ServerPort),
				Handler:           app.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				if err := app.CartEventConsumer.Start(gctx); err != nil {
					return err
				}
				select {
				case <-gctx.Done():
				case <-app.CartEventConsumer.C():
					if gctx.Err() == nil {
						return errors.New("cart event consumer stopped unexpectedly")
					}
				}
				return nil
			})
			g.Go(func() error {
				return app.Sweeper.Run(gctx, cf.SweepInterval)
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info().Msg("received shutdown signal")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("server shutdown error")
				}
				return app.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			logger.Info().Msg("closed completed")
			return err
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply database migrations before starting")
	return cmd
}
