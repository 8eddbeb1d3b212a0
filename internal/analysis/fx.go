package analysis

import (
	"github.com/smallbiznis/spacial/internal/analysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analysis.service",
	fx.Provide(service.New),
)
