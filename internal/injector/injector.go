//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/snapshot/internal/archive"
	"github.com/zeusync/snapshot/internal/config"
	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/transfer"
)

func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}

func InitializeArchive(cfg *config.Config, logger log.Log) (*archive.Archive, func(), error) {
	wire.Build(ProvideArchive)
	return nil, nil, nil
}

func InitializeTransferServer(cfg *config.Config, source transfer.Source, logger log.Log) *transfer.Server {
	wire.Build(ProvideTransferConfig, transfer.NewServer)
	return nil
}
