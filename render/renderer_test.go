package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/areamap/cluster"
	"github.com/vcnkl/areamap/models"
)

type stubIndex struct {
	views []models.View
	err   error
	calls int
}

func (s *stubIndex) Views(models.Bounds, int) ([]models.View, error) {
	s.calls++
	return s.views, s.err
}

func testArea(index int, lng, lat float64) *models.Area {
	anchor := models.LngLat{Lng: lng, Lat: lat}
	return &models.Area{
		Index:  index,
		Name:   "Community",
		Path:   []models.LngLat{anchor, {Lng: lng + 0.001, Lat: lat}, anchor},
		Anchor: anchor,
	}
}

func testViewport(zoom int) models.Viewport {
	return models.Viewport{
		Bounds: models.NewBounds(-180, -85, 180, 85),
		Zoom:   zoom,
		Event:  "zoomend",
	}
}

var (
	markerStyle  = models.MarkerStyle{Color: "green", TextColor: "#fff", Size: 32}
	polygonStyle = models.PolygonStyle{FillColor: "red", StrokeColor: "blue", BorderWeight: 2}
)

func TestRenderer_Render(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	idx := &stubIndex{views: []models.View{
		{Cluster: &models.Cluster{ID: "c1", Center: models.LngLat{Lng: 1, Lat: 2}, Count: 7, Members: []int{0, 1}}},
		{Area: testArea(5, 10, 20)},
	}}
	sink := NewChannelSink()
	frames, stop := sink.Subscribe()
	defer stop()

	r := NewRenderer(idx, "sha256:abc", sink, Options{
		MarkerStyle:  markerStyle,
		PolygonStyle: polygonStyle,
		Clock:        clock,
	})
	assert.Nil(t, r.Current())

	frame, err := r.Render(context.Background(), testViewport(10))
	require.NoError(t, err)

	assert.NotEmpty(t, frame.ID)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, "sha256:abc", frame.DatasetHash)
	assert.Equal(t, clock.Now(), frame.RenderedAt)
	assert.Equal(t, "zoomend", frame.Viewport.Event)

	require.Len(t, frame.Markers, 1)
	assert.Equal(t, models.Marker{
		ClusterID: "c1",
		Position:  models.LngLat{Lng: 1, Lat: 2},
		Count:     7,
		Label:     "7",
		Style:     markerStyle,
	}, frame.Markers[0])

	require.Len(t, frame.Polygons, 1)
	assert.Equal(t, 5, frame.Polygons[0].Index)
	assert.Equal(t, polygonStyle, frame.Polygons[0].Style)
	assert.Len(t, frame.Polygons[0].Path, 3)

	assert.Equal(t, models.Diff{AddedMarkers: 1, AddedPolygons: 1}, frame.Diff)
	assert.Same(t, frame, r.Current())

	select {
	case got := <-frames:
		assert.Same(t, frame, got)
	default:
		t.Fatal("frame was not published")
	}
}

func TestRenderer_RenderDiff(t *testing.T) {
	areas := []*models.Area{
		testArea(0, 116.4, 39.9),
		testArea(1, 116.4, 39.9),
		testArea(2, -74, 40.7),
	}
	r := NewRenderer(cluster.NewIndex(areas, cluster.DefaultOptions()), "", nil, Options{})

	clustered, err := r.Render(context.Background(), testViewport(10))
	require.NoError(t, err)
	assert.Len(t, clustered.Markers, 1)
	assert.Len(t, clustered.Polygons, 1)

	detailed, err := r.Render(context.Background(), testViewport(18))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), detailed.Seq)
	assert.Empty(t, detailed.Markers)
	assert.Len(t, detailed.Polygons, 3)
	assert.Equal(t, models.Diff{
		RemovedMarkers: 1,
		AddedPolygons:  2,
	}, detailed.Diff)
	assert.NotEqual(t, clustered.ID, detailed.ID)
}

func TestRenderer_RenderErrors(t *testing.T) {
	tests := []struct {
		name     string
		viewport models.Viewport
		index    *stubIndex
		sink     Sink
		wantErr  string
		current  bool
	}{
		{
			name:     "invalid viewport",
			viewport: testViewport(30),
			index:    &stubIndex{},
			wantErr:  "invalid viewport",
		},
		{
			name:     "index failure",
			viewport: testViewport(3),
			index:    &stubIndex{err: errors.New("boom")},
			wantErr:  "failed to query cluster index: boom",
		},
		{
			name:     "sink failure keeps frame",
			viewport: testViewport(3),
			index:    &stubIndex{},
			sink: SinkFunc(func(context.Context, *models.Frame) error {
				return errors.New("disk full")
			}),
			wantErr: "failed to publish frame 1: disk full",
			current: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(tt.index, "", tt.sink, Options{})

			_, err := r.Render(context.Background(), tt.viewport)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.current, r.Current() != nil)
		})
	}
}

func TestRenderer_SetIndex(t *testing.T) {
	first := &stubIndex{}
	second := &stubIndex{views: []models.View{{Area: testArea(0, 1, 1)}}}

	r := NewRenderer(first, "sha256:one", nil, Options{})
	r.SetIndex(second, "sha256:two")
	assert.Equal(t, "sha256:two", r.DatasetHash())

	frame, err := r.Render(context.Background(), testViewport(5))
	require.NoError(t, err)
	assert.Equal(t, 0, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, "sha256:two", frame.DatasetHash)
	assert.Len(t, frame.Polygons, 1)
}

func TestRenderer_CurrentDuringSlowPublish(t *testing.T) {
	publishing := make(chan struct{})
	release := make(chan struct{})
	sink := SinkFunc(func(context.Context, *models.Frame) error {
		publishing <- struct{}{}
		<-release
		return nil
	})
	r := NewRenderer(&stubIndex{}, "", sink, Options{})

	done := make(chan *models.Frame, 1)
	go func() {
		frame, err := r.Render(context.Background(), testViewport(3))
		assert.NoError(t, err)
		done <- frame
	}()

	<-publishing
	current := make(chan *models.Frame, 1)
	go func() { current <- r.Current() }()

	select {
	case frame := <-current:
		require.NotNil(t, frame)
		assert.Equal(t, uint64(1), frame.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("Current blocked while the sink was publishing")
	}

	second := make(chan *models.Frame, 1)
	go func() {
		frame, err := r.Render(context.Background(), testViewport(4))
		assert.NoError(t, err)
		second <- frame
	}()

	close(release)
	assert.Equal(t, uint64(1), (<-done).Seq)
	<-publishing
	assert.Equal(t, uint64(2), (<-second).Seq)
}
