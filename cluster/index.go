// Package cluster groups areas for a zoom level using the H3 hierarchical
// hexagonal grid: areas whose anchors share a cell at the resolution matching
// the zoom are drawn as one cluster.
package cluster

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/uber/h3-go/v4"

	"github.com/vcnkl/areamap/models"
)

const (
	earthCircumferenceKm = 40075.016686
	// average hexagon edge length at resolution 0
	baseEdgeKm    = 1107.712591
	maxResolution = 15
)

type Options struct {
	MaxZoom   int
	MinPoints int
	Radius    int
	TileSize  int
}

func DefaultOptions() Options {
	return Options{
		MaxZoom:   16,
		MinPoints: 2,
		Radius:    40,
		TileSize:  512,
	}
}

type Index struct {
	areas []*models.Area
	opts  Options

	mu     sync.Mutex
	levels map[int][]models.View
}

func NewIndex(areas []*models.Area, opts Options) *Index {
	defaults := DefaultOptions()
	if opts.MinPoints < 1 {
		opts.MinPoints = defaults.MinPoints
	}
	if opts.Radius <= 0 {
		opts.Radius = defaults.Radius
	}
	if opts.TileSize <= 0 {
		opts.TileSize = defaults.TileSize
	}

	return &Index{
		areas:  areas,
		opts:   opts,
		levels: make(map[int][]models.View),
	}
}

func (i *Index) Options() Options {
	return i.opts
}

func (i *Index) Len() int {
	return len(i.areas)
}

func (i *Index) Area(index int) (*models.Area, error) {
	for _, a := range i.areas {
		if a.Index == index {
			return a, nil
		}
	}
	return nil, &models.AreaNotFoundError{Index: index}
}

// ResolutionForZoom picks the H3 resolution whose edge length is closest to
// the cluster radius at zoom.
func (i *Index) ResolutionForZoom(zoom int) int {
	radiusKm := earthCircumferenceKm / math.Exp2(float64(zoom)) * float64(i.opts.Radius) / float64(i.opts.TileSize)
	res := int(math.Round(math.Log(baseEdgeKm/radiusKm) / math.Log(math.Sqrt(7))))
	return max(0, min(maxResolution, res))
}

// Views returns what is visible inside bounds at zoom. Past MaxZoom every area
// is returned on its own.
func (i *Index) Views(bounds models.Bounds, zoom int) ([]models.View, error) {
	var all []models.View
	if zoom > i.opts.MaxZoom {
		all = make([]models.View, len(i.areas))
		for j, a := range i.areas {
			all[j] = models.View{Area: a}
		}
	} else {
		var err error
		all, err = i.level(i.ResolutionForZoom(zoom))
		if err != nil {
			return nil, err
		}
	}

	views := make([]models.View, 0, len(all))
	for _, v := range all {
		if bounds.Contains(v.Position()) {
			views = append(views, v)
		}
	}
	return views, nil
}

func (i *Index) level(res int) ([]models.View, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if views, ok := i.levels[res]; ok {
		return views, nil
	}

	groups := make(map[h3.Cell][]*models.Area)
	for _, a := range i.areas {
		cell, err := h3.LatLngToCell(h3.NewLatLng(a.Anchor.Lat, a.Anchor.Lng), res)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to index area %d at resolution %d", a.Index, res)
		}
		groups[cell] = append(groups[cell], a)
	}

	var clusters, singles []models.View
	for cell, members := range groups {
		if len(members) < i.opts.MinPoints {
			for _, a := range members {
				singles = append(singles, models.View{Area: a})
			}
			continue
		}
		clusters = append(clusters, models.View{Cluster: newCluster(cell, members)})
	}

	sort.Slice(clusters, func(a, b int) bool {
		return clusters[a].Cluster.ID < clusters[b].Cluster.ID
	})
	sort.Slice(singles, func(a, b int) bool {
		return singles[a].Area.Index < singles[b].Area.Index
	})

	views := append(clusters, singles...)
	i.levels[res] = views
	return views, nil
}

func newCluster(cell h3.Cell, members []*models.Area) *models.Cluster {
	var lng, lat float64
	ref := members[0].Anchor.Lng
	ids := make([]int, len(members))
	for j, a := range members {
		// Members may straddle the antimeridian; average around the first one.
		lng += ref + wrapLng(a.Anchor.Lng-ref)
		lat += a.Anchor.Lat
		ids[j] = a.Index
	}
	sort.Ints(ids)

	n := float64(len(members))
	return &models.Cluster{
		ID:      cell.String(),
		Center:  models.LngLat{Lng: wrapLng(lng / n), Lat: lat / n},
		Count:   len(members),
		Members: ids,
	}
}

// wrapLng normalises a longitude into [-180, 180).
func wrapLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}
