package models

// ViewportRequest is how clients describe a viewport: either an explicit
// bounding box or a center with a pixel size.
type ViewportRequest struct {
	BBox   []float64 `json:"bbox,omitempty"`
	Center []float64 `json:"center,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
	Zoom   *int      `json:"zoom"`
	Event  string    `json:"event,omitempty"`
}

// Viewport resolves the request. width and height are used when a center is
// given without a size; event names the viewport when the request does not.
func (r ViewportRequest) Viewport(width, height int, event string) (Viewport, error) {
	if r.Zoom == nil {
		return Viewport{}, &InvalidViewportError{Reason: "zoom is required"}
	}

	var vp Viewport
	switch {
	case len(r.BBox) == 4:
		vp = Viewport{
			Bounds: NewBounds(r.BBox[0], r.BBox[1], r.BBox[2], r.BBox[3]),
			Zoom:   *r.Zoom,
		}
	case len(r.Center) == 2:
		if r.Width > 0 {
			width = r.Width
		}
		if r.Height > 0 {
			height = r.Height
		}
		center := LngLat{Lng: r.Center[0], Lat: r.Center[1]}
		if !center.Valid() {
			return Viewport{}, &InvalidViewportError{Reason: "center out of range: " + center.String()}
		}
		vp = ViewportAt(center, *r.Zoom, width, height)
	default:
		return Viewport{}, &InvalidViewportError{Reason: "either bbox [w,s,e,n] or center [lng,lat] is required"}
	}

	vp.Event = r.Event
	if vp.Event == "" {
		vp.Event = event
	}
	return vp, vp.Validate()
}
