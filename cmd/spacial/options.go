package main

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/config"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

// options are command line overrides applied on top of the environment.
type options struct {
	nodeID    int64
	httpAddr  string
	dbType    string
	dbPath    string
	spcConfig string
	seedDemo  bool
}

func (o *options) bind(fs *pflag.FlagSet) {
	fs.Int64Var(&o.nodeID, "node-id", 1, "snowflake node id for generated identifiers")
	fs.StringVar(&o.httpAddr, "addr", "", "http listen address (overrides HTTP_ADDR)")
	fs.StringVar(&o.dbType, "db-type", "", "database type: postgres, mysql or sqlite (overrides DATABASE_TYPE)")
	fs.StringVar(&o.dbPath, "db-path", "", "sqlite file path (overrides DATABASE_PATH)")
	fs.StringVar(&o.spcConfig, "spc-config", "", "directory holding spc.yaml (overrides SPC_CONFIG_PATH)")
}

func (o *options) apply(cfg config.Config) config.Config {
	if v := strings.TrimSpace(o.httpAddr); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(o.dbType); v != "" {
		cfg.DBType = v
	}
	if v := strings.TrimSpace(o.dbPath); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(o.spcConfig); v != "" {
		cfg.SPCConfigPath = v
	}
	if o.seedDemo {
		cfg.SeedDemo = true
	}
	return cfg
}

// infra is shared by every command: configuration, logging and the store.
func (o *options) infra() fx.Option {
	return fx.Options(
		config.Module,
		fx.Decorate(o.apply),
		fx.Provide(o.snowflakeNode),
	)
}

func (o *options) snowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(o.nodeID)
}
