package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/snapshot/internal/archive"
	"github.com/zeusync/snapshot/internal/config"
	"github.com/zeusync/snapshot/internal/core/components"
	"github.com/zeusync/snapshot/internal/core/events/bus"
	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/core/snapshot"
	"github.com/zeusync/snapshot/internal/transfer"
)

// App bundles what the command line needs for one invocation.
type App struct {
	Config *config.Config
	Logger log.Log
	Bus    bus.EventBus
	Engine *snapshot.Engine
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	components.Registry,
	ProvideEngineOptions,
	snapshot.NewEngine,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

func ProvideEngineOptions(cfg *config.Config, logger log.Log, events bus.EventBus) snapshot.Options {
	opts := cfg.EngineOptions(logger)
	opts.Observer = bus.NewSnapshotObserver(events, logger)
	return opts
}

func ProvideArchive(cfg *config.Config, logger log.Log) (*archive.Archive, func(), error) {
	a, err := archive.Open(cfg.Archive.Dir, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { _ = a.Close() }, nil
}

func ProvideTransferConfig(cfg *config.Config) transfer.Config {
	c := transfer.DefaultConfig()
	c.ListenAddr = cfg.Transfer.ListenAddr
	c.Path = cfg.Transfer.Path
	c.MaxMessageSize = cfg.Transfer.MaxMessageSize
	return c
}
