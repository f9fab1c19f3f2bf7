package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const tileSize = 256

type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func (p LngLat) Valid() bool {
	return p.Lng >= -180 && p.Lng <= 180 && p.Lat >= -90 && p.Lat <= 90
}

func (p LngLat) String() string {
	return strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

func ParseLngLat(s string) (LngLat, error) {
	vals, err := parseFloats(s, 2)
	if err != nil {
		return LngLat{}, errors.Wrapf(err, "invalid coordinate %q (expected lng,lat)", s)
	}
	p := LngLat{Lng: vals[0], Lat: vals[1]}
	if !p.Valid() {
		return LngLat{}, fmt.Errorf("coordinate out of range: %s", s)
	}
	return p, nil
}

// Bounds may cross the antimeridian, in which case SouthWest.Lng is greater
// than NorthEast.Lng.
type Bounds struct {
	SouthWest LngLat `json:"south_west"`
	NorthEast LngLat `json:"north_east"`
}

func NewBounds(west, south, east, north float64) Bounds {
	return Bounds{
		SouthWest: LngLat{Lng: west, Lat: south},
		NorthEast: LngLat{Lng: east, Lat: north},
	}
}

func ParseBBox(s string) (Bounds, error) {
	vals, err := parseFloats(s, 4)
	if err != nil {
		return Bounds{}, errors.Wrapf(err, "invalid bbox %q (expected west,south,east,north)", s)
	}
	b := NewBounds(vals[0], vals[1], vals[2], vals[3])
	if !b.Valid() {
		return Bounds{}, fmt.Errorf("bbox out of range: %s", s)
	}
	return b, nil
}

// BBox returns [west, south, east, north].
func (b Bounds) BBox() [4]float64 {
	return [4]float64{b.SouthWest.Lng, b.SouthWest.Lat, b.NorthEast.Lng, b.NorthEast.Lat}
}

func (b Bounds) Valid() bool {
	return b.SouthWest.Valid() && b.NorthEast.Valid() && b.SouthWest.Lat <= b.NorthEast.Lat
}

func (b Bounds) CrossesAntimeridian() bool {
	return b.SouthWest.Lng > b.NorthEast.Lng
}

func (b Bounds) Contains(p LngLat) bool {
	if p.Lat < b.SouthWest.Lat || p.Lat > b.NorthEast.Lat {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Lng >= b.SouthWest.Lng || p.Lng <= b.NorthEast.Lng
	}
	return p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

func (b Bounds) String() string {
	bbox := b.BBox()
	parts := make([]string, len(bbox))
	for i, v := range bbox {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

type Viewport struct {
	Bounds Bounds `json:"bounds"`
	Zoom   int    `json:"zoom"`
	Event  string `json:"event,omitempty"`
}

type InvalidViewportError struct {
	Reason string
}

func (e *InvalidViewportError) Error() string {
	return "invalid viewport: " + e.Reason
}

func (v Viewport) Validate() error {
	if !v.Bounds.Valid() {
		return &InvalidViewportError{Reason: "bounds out of range: " + v.Bounds.String()}
	}
	if v.Zoom < 0 || v.Zoom > 24 {
		return &InvalidViewportError{Reason: fmt.Sprintf("zoom %d outside [0, 24]", v.Zoom)}
	}
	return nil
}

// ViewportAt derives the bounds visible in a width x height pixel window
// centred on center, using 256px web mercator tiles.
func ViewportAt(center LngLat, zoom, width, height int) Viewport {
	world := float64(tileSize) * math.Exp2(float64(zoom))
	cx, cy := project(center, world)

	halfW := float64(width) / 2
	halfH := float64(height) / 2

	sw := unproject(cx-halfW, cy+halfH, world)
	ne := unproject(cx+halfW, cy-halfH, world)

	return Viewport{
		Bounds: Bounds{SouthWest: sw, NorthEast: ne},
		Zoom:   zoom,
	}
}

func project(p LngLat, world float64) (float64, float64) {
	x := (p.Lng + 180) / 360 * world
	sin := math.Sin(p.Lat * math.Pi / 180)
	y := (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * world
	return x, y
}

func unproject(x, y, world float64) LngLat {
	x = math.Max(0, math.Min(world, x))
	y = math.Max(0, math.Min(world, y))

	lng := x/world*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y/world))) * 180 / math.Pi
	return LngLat{Lng: lng, Lat: lat}
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %d", n, len(parts))
	}

	vals := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
