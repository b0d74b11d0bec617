package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Injected so state machine guards and
// expiry checks are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies unique identifiers.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// UUID returns a generator producing random UUID strings.
func UUID() IDGenerator { return uuidGenerator{} }
