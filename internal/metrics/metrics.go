package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
	"github.com/yash181999/Cycle-Tracking-App/internal/shared/geo"
)

// TotalDistanceKm sums the great-circle length of each adjacent pair of samples.
func TotalDistanceKm(path []ride.Coordinate) float64 {
	meters := 0.0
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		meters += geo.HaversineM(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return meters / 1000
}

// ElapsedDuration formats whole seconds as HH:MM:SS. Hours do not wrap at 24.
func ElapsedDuration(ticks int) string {
	if ticks < 0 {
		ticks = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", ticks/3600, (ticks%3600)/60, ticks%60)
}

// TotalDurationHours returns end-start in hours, or 0 when either timestamp is absent.
func TotalDurationHours(start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return float64(end.Sub(start).Milliseconds()) / float64(time.Hour.Milliseconds())
}

// AverageSpeedKmh returns 0 instead of a non-finite speed.
func AverageSpeedKmh(path []ride.Coordinate, durationHours float64) float64 {
	if durationHours <= 0 {
		return 0
	}
	speed := TotalDistanceKm(path) / durationHours
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0
	}
	return speed
}

func FormatSpeed(kmh float64) string {
	return fmt.Sprintf("%.2f", kmh)
}
