package ride

import (
	"context"
	"time"
)

type Accuracy int

const (
	AccuracyBalanced Accuracy = iota
	AccuracyHigh
)

// Update is one delivery from a location source: either a fix or an error.
type Update struct {
	Coordinate Coordinate
	At         time.Time
	Err        error
}

// Subscription is a live stream of updates. Unsubscribe releases it; the Tracker calls it once.
type Subscription interface {
	Updates() <-chan Update
	Unsubscribe()
}

type LocationSource interface {
	Subscribe(ctx context.Context, accuracy Accuracy) (Subscription, error)
}

// Clock provides wall time and the one-second ride ticker.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }
