package controlplan

import (
	"github.com/smallbiznis/spacial/internal/controlplan/repository"
	"github.com/smallbiznis/spacial/internal/controlplan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("controlplan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
