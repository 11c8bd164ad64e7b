package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/yash181999/Cycle-Tracking-App/internal/metrics"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
	"github.com/yash181999/Cycle-Tracking-App/internal/shared/geo"
)

const creator = "cycle-tracker"

func exportable(s ride.RideSession) error {
	if s.Status != ride.StatusStopped {
		return ErrNotStopped
	}
	if len(s.Path) == 0 {
		return ErrEmptyPath
	}
	return nil
}

// GPX encodes a stopped ride as a single-track GPX 1.1 document.
func GPX(s ride.RideSession) ([]byte, error) {
	if err := exportable(s); err != nil {
		return nil, err
	}

	points := make([]gpx.GPXPoint, 0, len(s.Path))
	for i, c := range s.Path {
		p := gpx.GPXPoint{Point: gpx.Point{Latitude: c.Latitude, Longitude: c.Longitude}}
		if i < len(s.SampledAt) {
			p.Timestamp = s.SampledAt[i]
		}
		points = append(points, p)
	}

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: creator,
		Tracks: []gpx.GPXTrack{{
			Name:     s.ID,
			Segments: []gpx.GPXTrackSegment{{Points: points}},
		}},
	}
	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return out, nil
}

// FIT encodes a stopped ride as a FIT cycling activity with one record per sample.
func FIT(s ride.RideSession) ([]byte, error) {
	if err := exportable(s); err != nil {
		return nil, err
	}

	fit := &proto.FIT{Messages: []proto.Message{}}

	fileID := mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(s.StartTime)
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	distanceM := 0.0
	for i, c := range s.Path {
		if i > 0 {
			prev := s.Path[i-1]
			distanceM += geo.HaversineM(prev.Latitude, prev.Longitude, c.Latitude, c.Longitude)
		}
		at := s.StartTime
		if i < len(s.SampledAt) {
			at = s.SampledAt[i]
		}
		record := mesgdef.NewRecord(nil).
			SetTimestamp(at).
			SetPositionLat(semicircles(c.Latitude)).
			SetPositionLong(semicircles(c.Longitude)).
			SetDistance(uint32(distanceM * 100))
		fit.Messages = append(fit.Messages, record.ToMesg(nil))
	}

	elapsedMs := uint32(metrics.TotalDurationHours(s.StartTime, s.EndTime) * 3600 * 1000)
	speedMps := metrics.AverageSpeedKmh(s.Path, metrics.TotalDurationHours(s.StartTime, s.EndTime)) / 3.6

	session := mesgdef.NewSession(nil).
		SetTimestamp(s.EndTime).
		SetStartTime(s.StartTime).
		SetSport(typedef.SportCycling).
		SetTotalElapsedTime(elapsedMs).
		SetTotalTimerTime(uint32(s.ElapsedTicks) * 1000).
		SetTotalDistance(uint32(distanceM * 100)).
		SetAvgSpeed(uint16(math.Min(speedMps*1000, math.MaxUint16-1)))
	fit.Messages = append(fit.Messages, session.ToMesg(nil))

	activity := mesgdef.NewActivity(nil).
		SetTimestamp(s.EndTime).
		SetType(typedef.ActivityManual).
		SetNumSessions(1)
	fit.Messages = append(fit.Messages, activity.ToMesg(nil))

	var buf bytes.Buffer
	if err := encoder.New(&buf).Encode(fit); err != nil {
		return nil, fmt.Errorf("encode fit: %w", err)
	}
	return buf.Bytes(), nil
}

// semicircles converts degrees to the FIT position unit.
func semicircles(deg float64) int32 {
	v := deg * (math.MaxInt32 + 1.0) / 180
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
