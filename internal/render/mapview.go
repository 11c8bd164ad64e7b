package render

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

var (
	ErrNotStopped   = errors.New("ride has not been stopped")
	ErrEmptyPath    = errors.New("ride has no recorded samples")
	ErrMissingToken = errors.New("map access token not configured")
)

const (
	DefaultMapStyle = "mapbox://styles/mapbox/streets-v11"
	DefaultZoom     = 15
)

type Options struct {
	AccessToken string
	MapStyle    string
	Zoom        float64
}

type Viewpoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Zoom      float64 `json:"zoom"`
}

// LineStyle is static configuration for the drawn trail.
type LineStyle struct {
	Color string `json:"line-color"`
	Width int    `json:"line-width"`
	Join  string `json:"line-join"`
	Cap   string `json:"line-cap"`
}

var TrailStyle = LineStyle{Color: "red", Width: 8, Join: "round", Cap: "round"}

// MapView is what the map widget needs to draw a finished ride. When Degraded is set the widget
// should show Placeholder instead of a map.
type MapView struct {
	RideID      string           `json:"ride_id"`
	AccessToken string           `json:"access_token,omitempty"`
	MapStyle    string           `json:"map_style"`
	Viewpoint   Viewpoint        `json:"initial_view_state"`
	Trail       *geojson.Feature `json:"trail"`
	Style       LineStyle        `json:"style"`
	Degraded    bool             `json:"degraded"`
	Placeholder string           `json:"placeholder,omitempty"`
}

// LineString converts a path to [lng, lat] geometry in sample order.
func LineString(path []ride.Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, c := range path {
		ls = append(ls, orb.Point{c.Longitude, c.Latitude})
	}
	return ls
}

// BuildMapView renders a stopped ride with a non-empty path. A missing access token yields a
// degraded view rather than an error.
func BuildMapView(s ride.RideSession, opts Options) (MapView, error) {
	if s.Status != ride.StatusStopped {
		return MapView{}, ErrNotStopped
	}
	if len(s.Path) == 0 {
		return MapView{}, ErrEmptyPath
	}
	if opts.MapStyle == "" {
		opts.MapStyle = DefaultMapStyle
	}
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}

	trail := geojson.NewFeature(LineString(s.Path))
	trail.Properties["ride_id"] = s.ID

	view := MapView{
		RideID:      s.ID,
		AccessToken: opts.AccessToken,
		MapStyle:    opts.MapStyle,
		Viewpoint: Viewpoint{
			Longitude: s.Path[0].Longitude,
			Latitude:  s.Path[0].Latitude,
			Zoom:      opts.Zoom,
		},
		Trail: trail,
		Style: TrailStyle,
	}
	if opts.AccessToken == "" {
		view.Degraded = true
		view.Placeholder = ErrMissingToken.Error()
	}
	return view, nil
}
