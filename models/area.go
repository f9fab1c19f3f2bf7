package models

import "strconv"

type Area struct {
	Index      int            `json:"index"`
	Name       string         `json:"name"`
	Path       []LngLat       `json:"path"`
	Anchor     LngLat         `json:"anchor"`
	Properties map[string]any `json:"properties,omitempty"`
}

type AreaNotFoundError struct {
	Index int
}

func (e *AreaNotFoundError) Error() string {
	return "area not found: " + strconv.Itoa(e.Index)
}

type Cluster struct {
	ID      string `json:"id"`
	Center  LngLat `json:"center"`
	Count   int    `json:"count"`
	Members []int  `json:"members"`
}

// View is one item visible at a zoom level: a cluster of areas or a single
// area drawn as its polygon.
type View struct {
	Cluster *Cluster `json:"cluster,omitempty"`
	Area    *Area    `json:"area,omitempty"`
}

func (v View) IsCluster() bool {
	return v.Cluster != nil
}

func (v View) Position() LngLat {
	if v.Cluster != nil {
		return v.Cluster.Center
	}
	return v.Area.Anchor
}
