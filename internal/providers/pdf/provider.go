// Package pdf renders printable SPC reports.
package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateSPCReport(ctx context.Context, data SPCReport) (io.Reader, error)
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)
