package tracking

import (
	"time"

	"github.com/yash181999/Cycle-Tracking-App/internal/metrics"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

// SampleRequest is one fix pushed by the device.
type SampleRequest struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

// FailureRequest reports a device-side geolocation error.
type FailureRequest struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Update is the live stream payload sent for every tracker change.
type Update struct {
	Kind    ride.ChangeKind  `json:"kind"`
	Summary metrics.Summary  `json:"summary"`
	Last    *ride.Coordinate `json:"last,omitempty"`
	Cell    string           `json:"cell,omitempty"`
	Error   string           `json:"error,omitempty"`
}
