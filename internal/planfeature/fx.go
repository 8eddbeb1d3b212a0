package planfeature

import (
	"github.com/smallbiznis/spacial/internal/planfeature/repository"
	"github.com/smallbiznis/spacial/internal/planfeature/service"
	"go.uber.org/fx"
)

var Module = fx.Module("planfeature.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
