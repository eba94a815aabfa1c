package contract

import (
	"nhatro/internal/contract/service"

	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(service.New),
)
