package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts the wall clock so capture timestamps can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// New returns the UTC system clock.
func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
