package ride

import (
	"errors"
	"time"
)

var (
	ErrNotTracking         = errors.New("ride is not tracking")
	ErrNotActive           = errors.New("ride is not tracking or paused")
	ErrIgnored             = errors.New("event has no effect in current state")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// Event is an input to Reduce.
type Event interface {
	event()
}

type Started struct {
	ID string
	At time.Time
}

type Paused struct{}

type Stopped struct {
	At time.Time
}

type SampleReceived struct {
	Coordinate Coordinate
	At         time.Time
}

type Ticked struct{}

func (Started) event()        {}
func (Paused) event()         {}
func (Stopped) event()        {}
func (SampleReceived) event() {}
func (Ticked) event()         {}

// Reduce applies ev to s and returns the next state. On error the returned session equals s.
// Reduce may append into the backing arrays of s.Path and s.SampledAt, so callers that hand out
// snapshots must Clone them.
func Reduce(s RideSession, ev Event) (RideSession, error) {
	switch e := ev.(type) {
	case Started:
		return RideSession{ID: e.ID, Status: StatusTracking, StartTime: e.At}, nil

	case Paused:
		if s.Status != StatusTracking {
			return s, ErrNotTracking
		}
		s.Status = StatusPaused
		return s, nil

	case Stopped:
		if !s.Active() {
			return s, ErrNotActive
		}
		s.Status = StatusStopped
		s.EndTime = e.At
		return s, nil

	case SampleReceived:
		if s.Status != StatusTracking {
			return s, ErrIgnored
		}
		s.Path = append(s.Path, e.Coordinate)
		s.SampledAt = append(s.SampledAt, e.At)
		return s, nil

	case Ticked:
		if s.Status != StatusTracking {
			return s, ErrIgnored
		}
		s.ElapsedTicks++
		return s, nil
	}
	return s, ErrIgnored
}
