package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

var ErrEmptyTrack = errors.New("gpx file has no track points")

// GPXReplay plays back the points of a recorded GPX track as a live location stream, one point
// per interval.
type GPXReplay struct {
	points   []ride.Coordinate
	interval time.Duration
}

func LoadGPXFile(path string, interval time.Duration) (*GPXReplay, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gpx file: %w", err)
	}
	return newGPXReplay(g, interval)
}

func LoadGPX(data []byte, interval time.Duration) (*GPXReplay, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return newGPXReplay(g, interval)
}

func newGPXReplay(g *gpx.GPX, interval time.Duration) (*GPXReplay, error) {
	var points []ride.Coordinate
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				points = append(points, ride.Coordinate{Longitude: p.Longitude, Latitude: p.Latitude})
			}
		}
	}
	if len(points) == 0 {
		return nil, ErrEmptyTrack
	}
	return &GPXReplay{points: points, interval: interval}, nil
}

func (r *GPXReplay) Len() int { return len(r.points) }

func (r *GPXReplay) Subscribe(_ context.Context, _ ride.Accuracy) (ride.Subscription, error) {
	sub := &replaySubscription{
		updates: make(chan ride.Update),
		done:    make(chan struct{}),
	}
	go sub.play(r.points, r.interval)
	return sub, nil
}

type replaySubscription struct {
	updates chan ride.Update
	done    chan struct{}
	once    sync.Once
}

func (s *replaySubscription) Updates() <-chan ride.Update { return s.updates }

func (s *replaySubscription) Unsubscribe() {
	s.once.Do(func() { close(s.done) })
}

func (s *replaySubscription) play(points []ride.Coordinate, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for _, p := range points {
		if tick != nil {
			select {
			case <-tick:
			case <-s.done:
				return
			}
		}
		select {
		case s.updates <- ride.Update{Coordinate: p, At: time.Now()}:
		case <-s.done:
			return
		}
	}
}
