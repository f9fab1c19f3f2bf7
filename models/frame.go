package models

import "time"

type MarkerStyle struct {
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
	Size      int    `json:"size"`
}

type PolygonStyle struct {
	FillColor    string `json:"fill_color"`
	StrokeColor  string `json:"stroke_color"`
	BorderWeight int    `json:"border_weight"`
}

type Marker struct {
	ClusterID string      `json:"cluster_id"`
	Position  LngLat      `json:"position"`
	Count     int         `json:"count"`
	Label     string      `json:"label"`
	Style     MarkerStyle `json:"style"`
}

type Polygon struct {
	Index int          `json:"index"`
	Name  string       `json:"name"`
	Path  []LngLat     `json:"path"`
	Style PolygonStyle `json:"style"`
}

// Diff counts what replacing the previous frame removed and added.
type Diff struct {
	AddedMarkers    int `json:"added_markers"`
	RemovedMarkers  int `json:"removed_markers"`
	AddedPolygons   int `json:"added_polygons"`
	RemovedPolygons int `json:"removed_polygons"`
}

func (d Diff) Empty() bool {
	return d == Diff{}
}

type Frame struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	Viewport    Viewport  `json:"viewport"`
	Markers     []Marker  `json:"markers"`
	Polygons    []Polygon `json:"polygons"`
	DatasetHash string    `json:"dataset_hash,omitempty"`
	RenderedAt  time.Time `json:"rendered_at"`
	Diff        Diff      `json:"diff"`
}

func DiffFrames(prev, next *Frame) Diff {
	var diff Diff

	prevMarkers := make(map[string]bool)
	prevPolygons := make(map[int]bool)
	if prev != nil {
		for _, m := range prev.Markers {
			prevMarkers[m.ClusterID] = true
		}
		for _, p := range prev.Polygons {
			prevPolygons[p.Index] = true
		}
	}

	nextMarkers := make(map[string]bool, len(next.Markers))
	for _, m := range next.Markers {
		nextMarkers[m.ClusterID] = true
		if !prevMarkers[m.ClusterID] {
			diff.AddedMarkers++
		}
	}
	nextPolygons := make(map[int]bool, len(next.Polygons))
	for _, p := range next.Polygons {
		nextPolygons[p.Index] = true
		if !prevPolygons[p.Index] {
			diff.AddedPolygons++
		}
	}

	for id := range prevMarkers {
		if !nextMarkers[id] {
			diff.RemovedMarkers++
		}
	}
	for idx := range prevPolygons {
		if !nextPolygons[idx] {
			diff.RemovedPolygons++
		}
	}

	return diff
}
