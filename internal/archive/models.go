package archive

import (
	"time"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

type Ride struct {
	ID              string            `json:"id"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         time.Time         `json:"ended_at"`
	ElapsedSec      int               `json:"elapsed_sec"`
	DistanceKm      float64           `json:"distance_km"`
	AverageSpeedKmh float64           `json:"average_speed_kmh"`
	SampleCount     int               `json:"sample_count"`
	StartCell       string            `json:"start_cell,omitempty"`
	Path            []ride.Coordinate `json:"path,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}
