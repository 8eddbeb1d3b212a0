package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/migration"
	"github.com/smallbiznis/spacial/internal/observability"
	"github.com/smallbiznis/spacial/internal/seed"
	"github.com/smallbiznis/spacial/internal/server"
	"github.com/smallbiznis/spacial/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const oneShotTimeout = 2 * time.Minute

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				opts.infra(),
				observability.Module,
				db.Module,
				clock.Module,
				migration.Module,
				seed.Module,
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.seedDemo, "seed", false, "load the demo dataset on start (same as SEED_DEMO=true)")
	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(),
				opts.infra(),
				observability.Module,
				db.Module,
				migration.Module,
			)
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(),
				opts.infra(),
				observability.Module,
				db.Module,
				clock.Module,
				migration.Module,
				fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB, node *snowflake.Node, clk clock.Clock, log *zap.Logger) {
					lc.Append(fx.Hook{
						OnStart: func(ctx context.Context) error {
							ds, err := seed.Demo()
							if err != nil {
								return err
							}
							res, err := seed.Apply(ctx, conn, node, clk.Now(), nil, ds, log.Named("seed"))
							if err != nil {
								return err
							}
							log.Info("demo data loaded",
								zap.Int("products", res.Products),
								zap.Int("features", res.Features),
								zap.Int("plans", res.Plans),
								zap.Int("bindings", res.Bindings),
								zap.Int("measurements", res.Measurements),
							)
							return nil
						},
					})
				}),
			)
		},
	}
}

// runOnce starts the graph so OnStart hooks do their work, then stops it.
func runOnce(ctx context.Context, opts ...fx.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app := fx.New(append(opts, fx.NopLogger)...)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, oneShotTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancelStop()
	return app.Stop(stopCtx)
}
