// Package render turns a viewport into a frame of cluster markers and area
// polygons and hands it to a sink.
package render

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
)

type Index interface {
	Views(bounds models.Bounds, zoom int) ([]models.View, error)
}

type Options struct {
	MarkerStyle  models.MarkerStyle
	PolygonStyle models.PolygonStyle
	Clock        clockwork.Clock
	Logger       logger.Logger
}

type Renderer struct {
	sink         Sink
	markerStyle  models.MarkerStyle
	polygonStyle models.PolygonStyle
	clock        clockwork.Clock
	log          logger.Logger

	// renderMu serialises renders and publishes; mu guards the fields below
	// and is not held while the sink runs.
	renderMu sync.Mutex

	mu      sync.Mutex
	index   Index
	hash    string
	seq     uint64
	current *models.Frame
}

func NewRenderer(index Index, datasetHash string, sink Sink, opts Options) *Renderer {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if sink == nil {
		sink = NopSink{}
	}

	return &Renderer{
		sink:         sink,
		markerStyle:  opts.MarkerStyle,
		polygonStyle: opts.PolygonStyle,
		clock:        opts.Clock,
		log:          opts.Logger,
		index:        index,
		hash:         datasetHash,
	}
}

// SetIndex swaps the dataset used by subsequent renders.
func (r *Renderer) SetIndex(index Index, datasetHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = index
	r.hash = datasetHash
}

func (r *Renderer) DatasetHash() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.hash
}

// Current returns the last rendered frame, nil before the first render.
func (r *Renderer) Current() *models.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// Render builds the frame for vp, replaces the current frame and publishes it.
// The frame becomes current even when publishing fails.
func (r *Renderer) Render(ctx context.Context, vp models.Viewport) (*models.Frame, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}

	r.renderMu.Lock()
	defer r.renderMu.Unlock()

	frame, err := r.build(vp)
	if err != nil {
		return nil, err
	}

	if err = r.sink.Publish(ctx, frame); err != nil {
		return frame, errors.Wrapf(err, "failed to publish frame %d", frame.Seq)
	}
	return frame, nil
}

func (r *Renderer) build(vp models.Viewport) (*models.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.clock.Now()

	views, err := r.index.Views(vp.Bounds, vp.Zoom)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query cluster index")
	}

	frame := &models.Frame{
		ID:          uuid.NewString(),
		Seq:         r.seq + 1,
		Viewport:    vp,
		Markers:     make([]models.Marker, 0),
		Polygons:    make([]models.Polygon, 0),
		DatasetHash: r.hash,
		RenderedAt:  start.UTC(),
	}

	for _, v := range views {
		if v.IsCluster() {
			frame.Markers = append(frame.Markers, r.marker(v.Cluster))
			continue
		}
		frame.Polygons = append(frame.Polygons, r.polygon(v.Area))
	}

	frame.Diff = models.DiffFrames(r.current, frame)
	r.seq = frame.Seq
	r.current = frame

	r.log.Debug("rendered frame",
		logger.Uint64("seq", frame.Seq),
		logger.String("event", vp.Event),
		logger.Int("zoom", vp.Zoom),
		logger.Int("markers", len(frame.Markers)),
		logger.Int("polygons", len(frame.Polygons)),
		logger.Duration("took", r.clock.Since(start)),
	)
	return frame, nil
}

func (r *Renderer) marker(c *models.Cluster) models.Marker {
	return models.Marker{
		ClusterID: c.ID,
		Position:  c.Center,
		Count:     c.Count,
		Label:     strconv.Itoa(c.Count),
		Style:     r.markerStyle,
	}
}

func (r *Renderer) polygon(a *models.Area) models.Polygon {
	return models.Polygon{
		Index: a.Index,
		Name:  a.Name,
		Path:  a.Path,
		Style: r.polygonStyle,
	}
}
