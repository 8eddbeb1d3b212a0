package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module seeds demo data on startup when SEED_DEMO is enabled.
var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, node *snowflake.Node, clk clock.Clock, log *zap.Logger) {
		if !cfg.SeedDemo {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				ds, err := Demo()
				if err != nil {
					return err
				}
				_, err = Apply(ctx, db, node, clk.Now(), nil, ds, log.Named("seed"))
				return err
			},
		})
	}),
)
