package metrics

import (
	"time"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

// Summary is the display read-out for a ride.
type Summary struct {
	RideID          string      `json:"ride_id"`
	Status          ride.Status `json:"status"`
	Elapsed         string      `json:"elapsed"`
	ElapsedSec      int         `json:"elapsed_sec"`
	DistanceKm      float64     `json:"distance_km"`
	AverageSpeedKmh float64     `json:"average_speed_kmh"`
	AverageSpeed    string      `json:"average_speed"`
	SampleCount     int         `json:"sample_count"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
}

// Summarize derives the read-out. Stopped rides use wall-clock start/end; live rides use the
// tick count so paused time is excluded.
func Summarize(s ride.RideSession) Summary {
	hours := float64(s.ElapsedTicks) / 3600
	if s.Status == ride.StatusStopped {
		hours = TotalDurationHours(s.StartTime, s.EndTime)
	}
	speed := AverageSpeedKmh(s.Path, hours)

	out := Summary{
		RideID:          s.ID,
		Status:          s.Status,
		Elapsed:         ElapsedDuration(s.ElapsedTicks),
		ElapsedSec:      s.ElapsedTicks,
		DistanceKm:      TotalDistanceKm(s.Path),
		AverageSpeedKmh: speed,
		AverageSpeed:    FormatSpeed(speed),
		SampleCount:     len(s.Path),
	}
	if !s.StartTime.IsZero() {
		started := s.StartTime
		out.StartedAt = &started
	}
	if !s.EndTime.IsZero() {
		ended := s.EndTime
		out.EndedAt = &ended
	}
	return out
}
