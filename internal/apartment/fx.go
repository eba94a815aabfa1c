package apartment

import (
	"nhatro/internal/apartment/repository"
	"nhatro/internal/apartment/service"

	"go.uber.org/fx"
)

var Module = fx.Module("apartment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
