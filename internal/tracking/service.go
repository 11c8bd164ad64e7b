package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yash181999/Cycle-Tracking-App/internal/archive"
	"github.com/yash181999/Cycle-Tracking-App/internal/location"
	"github.com/yash181999/Cycle-Tracking-App/internal/metrics"
	"github.com/yash181999/Cycle-Tracking-App/internal/render"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
	"github.com/yash181999/Cycle-Tracking-App/internal/shared/geo"
	"github.com/yash181999/Cycle-Tracking-App/internal/stream"
)

var (
	ErrNotPushSource = errors.New("location source does not accept pushed samples")
	ErrInvalidSample = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
)

const archiveTimeout = 5 * time.Second

type Options struct {
	Push    *location.PushSource
	Hub     *stream.Hub
	Archive *archive.Service
	Map     render.Options
	Log     logrus.FieldLogger
}

// Service exposes the tracker to the HTTP layer and fans its changes out to the live stream
// and the archive.
type Service struct {
	tracker *ride.Tracker
	push    *location.PushSource
	hub     *stream.Hub
	archive *archive.Service
	mapOpts render.Options
	log     logrus.FieldLogger
}

func NewService(tracker *ride.Tracker, opts Options) *Service {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	s := &Service{
		tracker: tracker,
		push:    opts.Push,
		hub:     opts.Hub,
		archive: opts.Archive,
		mapOpts: opts.Map,
		log:     opts.Log,
	}
	tracker.Observe(s.onChange)
	return s
}

func (s *Service) Start(ctx context.Context) (metrics.Summary, error) {
	session, err := s.tracker.Start(ctx)
	if err != nil {
		return metrics.Summary{}, err
	}
	return metrics.Summarize(session), nil
}

func (s *Service) Pause() (metrics.Summary, error) {
	session, err := s.tracker.Pause()
	return metrics.Summarize(session), err
}

func (s *Service) Stop() (metrics.Summary, error) {
	session, err := s.tracker.Stop()
	return metrics.Summarize(session), err
}

func (s *Service) Current() metrics.Summary {
	return metrics.Summarize(s.tracker.Snapshot())
}

func (s *Service) Path() []ride.Coordinate {
	return s.tracker.Snapshot().Path
}

func (s *Service) Ingest(ctx context.Context, req SampleRequest) error {
	if s.push == nil {
		return ErrNotPushSource
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return ErrInvalidSample
	}
	at := req.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	return s.push.Publish(ctx, ride.Coordinate{Longitude: req.Lng, Latitude: req.Lat}, at)
}

func (s *Service) ReportFailure(ctx context.Context, req FailureRequest) error {
	if s.push == nil {
		return ErrNotPushSource
	}
	cause := req.Message
	if req.Code != "" {
		cause = req.Code + ": " + req.Message
	}
	return s.push.Fail(ctx, errors.New(cause))
}

func (s *Service) MapView() (render.MapView, error) {
	return render.BuildMapView(s.tracker.Snapshot(), s.mapOpts)
}

func (s *Service) ExportGPX() (string, []byte, error) {
	session := s.tracker.Snapshot()
	out, err := render.GPX(session)
	return exportName(session, "gpx"), out, err
}

func (s *Service) ExportFIT() (string, []byte, error) {
	session := s.tracker.Snapshot()
	out, err := render.FIT(session)
	return exportName(session, "fit"), out, err
}

func exportName(session ride.RideSession, ext string) string {
	return fmt.Sprintf("ride-%s.%s", session.ID, ext)
}

func (s *Service) onChange(c ride.Change) {
	if s.hub != nil && c.Session.ID != "" {
		payload, err := json.Marshal(newUpdate(c))
		if err != nil {
			s.log.WithError(err).Error("encode ride update")
		} else {
			s.hub.Broadcast(c.Session.ID, payload)
		}
	}

	if c.Kind == ride.ChangeStatus && c.Session.Status == ride.StatusStopped && s.archive != nil {
		go s.archiveRide(c.Session)
	}
}

func (s *Service) archiveRide(session ride.RideSession) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if _, err := s.archive.Save(ctx, session); err != nil {
		s.log.WithError(err).WithField("ride_id", session.ID).Error("archive ride failed")
		return
	}
	s.log.WithField("ride_id", session.ID).Info("ride archived")
}

func newUpdate(c ride.Change) Update {
	u := Update{Kind: c.Kind, Summary: metrics.Summarize(c.Session)}
	if n := len(c.Session.Path); n > 0 {
		last := c.Session.Path[n-1]
		u.Last = &last
		u.Cell = geo.Cell(last.Latitude, last.Longitude)
	}
	if c.Err != nil {
		u.Error = c.Err.Error()
	}
	return u
}
