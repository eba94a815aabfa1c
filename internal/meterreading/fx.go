package meterreading

import (
	"nhatro/internal/meterreading/service"

	"go.uber.org/fx"
)

var Module = fx.Module("meterreading.service",
	fx.Provide(service.New),
)
