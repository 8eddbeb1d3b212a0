package dashboard

import (
	"github.com/smallbiznis/spacial/internal/dashboard/repository"
	"github.com/smallbiznis/spacial/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
