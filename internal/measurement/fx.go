package measurement

import (
	"github.com/smallbiznis/spacial/internal/measurement/repository"
	"github.com/smallbiznis/spacial/internal/measurement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("measurement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
