package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/areamap/cluster"
	"github.com/vcnkl/areamap/models"
	"github.com/vcnkl/areamap/render"
)

type fakeBackend struct {
	mu       sync.Mutex
	triggers []models.Viewport
	current  *models.Frame
	index    *cluster.Index
	sink     *render.ChannelSink
}

func newFakeBackend() *fakeBackend {
	areas := []*models.Area{
		{Index: 0, Name: "Community 0", Anchor: models.LngLat{Lng: 116.4, Lat: 39.9}},
		{Index: 1, Name: "Community 1", Anchor: models.LngLat{Lng: 116.4, Lat: 39.9}},
		{Index: 2, Name: "Community 2", Anchor: models.LngLat{Lng: -74, Lat: 40.7}},
	}
	return &fakeBackend{
		index: cluster.NewIndex(areas, cluster.DefaultOptions()),
		sink:  render.NewChannelSink(),
	}
}

func (b *fakeBackend) Trigger(vp models.Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.triggers = append(b.triggers, vp)
}

func (b *fakeBackend) Current() *models.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *fakeBackend) Index() Index {
	return b.index
}

func (b *fakeBackend) Subscribe() (<-chan *models.Frame, func()) {
	return b.sink.Subscribe()
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(New(backend, Options{Width: 1024, Height: 768}).Handler())
	t.Cleanup(srv.Close)
	return srv, backend
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Viewport(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantZoom   int
		wantEvent  string
	}{
		{
			name:       "bbox",
			body:       `{"bbox":[116,39,117,40],"zoom":12,"event":"moveend"}`,
			wantStatus: http.StatusAccepted,
			wantZoom:   12,
			wantEvent:  "moveend",
		},
		{
			name:       "center uses default size",
			body:       `{"center":[116.467987,39.992613],"zoom":14}`,
			wantStatus: http.StatusAccepted,
			wantZoom:   14,
			wantEvent:  "api",
		},
		{
			name:       "malformed json",
			body:       `{"bbox":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing zoom",
			body:       `{"bbox":[116,39,117,40]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing position",
			body:       `{"zoom":3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zoom out of range",
			body:       `{"bbox":[116,39,117,40],"zoom":40}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bounds out of range",
			body:       `{"bbox":[116,-95,117,40],"zoom":4}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, backend := newTestServer(t)

			resp, err := http.Post(srv.URL+"/viewport", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusAccepted {
				assert.Empty(t, backend.triggers)
				return
			}

			require.Len(t, backend.triggers, 1)
			assert.Equal(t, tt.wantZoom, backend.triggers[0].Zoom)
			assert.Equal(t, tt.wantEvent, backend.triggers[0].Event)
			assert.True(t, backend.triggers[0].Bounds.Valid())
		})
	}
}

func TestServer_Frame(t *testing.T) {
	srv, backend := newTestServer(t)

	resp, err := http.Get(srv.URL + "/frame")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	backend.current = &models.Frame{ID: "abc", Seq: 2}

	resp, err = http.Get(srv.URL + "/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var frame models.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.Equal(t, "abc", frame.ID)
	assert.Equal(t, uint64(2), frame.Seq)
}

func TestServer_Area(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/areas/1", http.StatusOK},
		{"/areas/9", http.StatusNotFound},
		{"/areas/abc", http.StatusBadRequest},
	}

	srv, _ := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				var area models.Area
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&area))
				assert.Equal(t, "Community 1", area.Name)
			}
		})
	}
}

func TestServer_Clusters(t *testing.T) {
	srv, backend := newTestServer(t)

	resp, err := http.Get(srv.URL + "/clusters?bbox=-180,-85,180,85&zoom=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []models.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.True(t, views[0].IsCluster())
	assert.Equal(t, 2, views[0].Cluster.Count)
	assert.Equal(t, 2, views[1].Area.Index)
	assert.Empty(t, backend.triggers)

	for _, query := range []string{"bbox=1,2,3&zoom=4", "bbox=-180,-85,180,85&zoom=x", "bbox=-180,-85,180,85&zoom=30"} {
		resp, err := http.Get(srv.URL + "/clusters?" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestServer_Events(t *testing.T) {
	srv, backend := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	go func() {
		// the subscription is registered before the headers are flushed
		_ = backend.sink.Publish(ctx, &models.Frame{ID: "live", Seq: 7})
	}()

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimSpace(line))
	}

	assert.Equal(t, "id: 7", lines[0])
	assert.Equal(t, "event: frame", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "data: "))
	assert.Contains(t, lines[2], `"id":"live"`)
}

func TestServer_ListenAndServe(t *testing.T) {
	s := New(newFakeBackend(), Options{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
