// Package clock abstracts wall time so invoice due dates and billing run
// timestamps are deterministic under test.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. Services take it instead of calling
// time.Now directly so fixtures can pin the billing month.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
