package ride

import "time"

type Status string

const (
	StatusIdle     Status = "idle"
	StatusTracking Status = "tracking"
	StatusPaused   Status = "paused"
	StatusStopped  Status = "stopped"
)

// Coordinate is a single recorded position. Values are never modified after they are appended.
type Coordinate struct {
	Longitude float64 `json:"lng"`
	Latitude  float64 `json:"lat"`
}

// RideSession is the aggregate state of one ride attempt. A zero StartTime or EndTime means the
// timestamp is absent. SampledAt[i] is the receipt time of Path[i].
type RideSession struct {
	ID           string       `json:"id"`
	Status       Status       `json:"status"`
	Path         []Coordinate `json:"path"`
	SampledAt    []time.Time  `json:"sampled_at"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time"`
	ElapsedTicks int          `json:"elapsed_ticks"`
}

// NewSession returns an idle session with an empty path.
func NewSession() RideSession {
	return RideSession{Status: StatusIdle}
}

// Clone returns a deep copy that shares no backing arrays with s.
func (s RideSession) Clone() RideSession {
	out := s
	out.Path = append([]Coordinate(nil), s.Path...)
	out.SampledAt = append([]time.Time(nil), s.SampledAt...)
	return out
}

// Active reports whether the ride holds a subscription (Tracking or Paused).
func (s RideSession) Active() bool {
	return s.Status == StatusTracking || s.Status == StatusPaused
}
