package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/yash181999/Cycle-Tracking-App/internal/db"
	"github.com/yash181999/Cycle-Tracking-App/internal/metrics"
	"github.com/yash181999/Cycle-Tracking-App/internal/render"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
	"github.com/yash181999/Cycle-Tracking-App/internal/shared/geo"
)

var (
	ErrNotFinished = errors.New("only stopped rides can be archived")
	ErrNotFound    = errors.New("ride not found")
)

const defaultListLimit = 20

// Service keeps finished rides in Postgres (PostGIS). It is optional; the tracker never waits on it.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Save(ctx context.Context, session ride.RideSession) (Ride, error) {
	if session.Status != ride.StatusStopped {
		return Ride{}, ErrNotFinished
	}

	sum := metrics.Summarize(session)
	out := Ride{
		ID:              session.ID,
		StartedAt:       session.StartTime,
		EndedAt:         session.EndTime,
		ElapsedSec:      session.ElapsedTicks,
		DistanceKm:      sum.DistanceKm,
		AverageSpeedKmh: sum.AverageSpeedKmh,
		SampleCount:     len(session.Path),
	}
	if len(session.Path) > 0 {
		out.StartCell = geo.Cell(session.Path[0].Latitude, session.Path[0].Longitude)
	}

	// PostGIS rejects single-point line strings
	var route *string
	if len(session.Path) >= 2 {
		text := wkt.MarshalString(render.LineString(session.Path))
		route = &text
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO ride_archive (id, started_at, ended_at, elapsed_sec, distance_km, avg_speed_kmh, sample_count, start_cell, route)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, ST_GeogFromText($9))
		RETURNING created_at
	`, out.ID, out.StartedAt, out.EndedAt, out.ElapsedSec, out.DistanceKm, out.AverageSpeedKmh, out.SampleCount, out.StartCell, route)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return Ride{}, fmt.Errorf("archive ride %s: %w", out.ID, err)
	}
	out.Path = session.Clone().Path
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at, ended_at, elapsed_sec, distance_km, avg_speed_kmh, sample_count,
		       COALESCE(start_cell,''), COALESCE(ST_AsText(route::geometry),''), created_at
		FROM ride_archive WHERE id=$1
	`, id)

	var r Ride
	var routeWKT string
	if err := row.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.ElapsedSec, &r.DistanceKm, &r.AverageSpeedKmh, &r.SampleCount, &r.StartCell, &routeWKT, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ride{}, ErrNotFound
		}
		return Ride{}, err
	}

	path, err := parseRoute(routeWKT)
	if err != nil {
		return Ride{}, err
	}
	r.Path = path
	return r, nil
}

// List returns the most recent rides without their paths.
func (s *Service) List(ctx context.Context, limit int) ([]Ride, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, started_at, ended_at, elapsed_sec, distance_km, avg_speed_kmh, sample_count, COALESCE(start_cell,''), created_at
		FROM ride_archive
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := []Ride{}
	for rows.Next() {
		var r Ride
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.ElapsedSec, &r.DistanceKm, &r.AverageSpeedKmh, &r.SampleCount, &r.StartCell, &r.CreatedAt); err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, rows.Err()
}

func parseRoute(text string) ([]ride.Coordinate, error) {
	if text == "" {
		return nil, nil
	}
	geom, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("parse route: %w", err)
	}
	ls, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("parse route: unexpected geometry %s", geom.GeoJSONType())
	}
	path := make([]ride.Coordinate, 0, len(ls))
	for _, p := range ls {
		path = append(path, ride.Coordinate{Longitude: p.Lon(), Latitude: p.Lat()})
	}
	return path, nil
}
