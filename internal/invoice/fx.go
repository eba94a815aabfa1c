package invoice

import (
	"nhatro/internal/invoice/service"

	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.New),
)
