package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SPCConfig tunes how analysis results are presented.
type SPCConfig struct {
	// RecentWindow is the number of trailing points returned for tabular display.
	RecentWindow int `mapstructure:"recentWindow"`
	// OrderCheck rejects measurement sequences whose timestamps decrease.
	OrderCheck bool `mapstructure:"orderCheck"`
}

func DefaultSPCConfig() SPCConfig {
	return SPCConfig{
		RecentWindow: 10,
		OrderCheck:   false,
	}
}

type SPCConfigHolder struct {
	current atomic.Value // holds SPCConfig
}

// NewStaticSPCConfigHolder returns a holder that never reloads.
func NewStaticSPCConfigHolder(cfg SPCConfig) *SPCConfigHolder {
	holder := &SPCConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewSPCConfigHolder(appCfg Config, log *zap.Logger) (*SPCConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("spc")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(appCfg.SPCConfigPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/spacial")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPACIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSPCConfig()
	v.SetDefault("spc.recentWindow", defaults.RecentWindow)
	v.SetDefault("spc.orderCheck", defaults.OrderCheck)

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	var cfg SPCConfig
	if err := v.UnmarshalKey("spc", &cfg); err != nil {
		return nil, err
	}
	if err := validateSPCConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticSPCConfigHolder(cfg)
	if !fromFile {
		return holder, nil
	}

	log = log.Named("spc.config")
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SPCConfig
		if err := v.UnmarshalKey("spc", &updated); err != nil {
			log.Warn("spc config reload failed", zap.Error(err))
			return
		}
		if err := validateSPCConfig(updated); err != nil {
			log.Warn("invalid spc config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("spc config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *SPCConfigHolder) Get() SPCConfig {
	if h == nil {
		return DefaultSPCConfig()
	}
	return h.current.Load().(SPCConfig)
}

func validateSPCConfig(cfg SPCConfig) error {
	if cfg.RecentWindow <= 0 {
		return errors.New("spc.recentWindow must be positive")
	}
	return nil
}
