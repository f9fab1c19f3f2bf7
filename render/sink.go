package render

import (
	"context"
	"errors"
	"sync"

	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
)

type Sink interface {
	Publish(ctx context.Context, frame *models.Frame) error
}

type SinkFunc func(ctx context.Context, frame *models.Frame) error

func (f SinkFunc) Publish(ctx context.Context, frame *models.Frame) error {
	return f(ctx, frame)
}

type NopSink struct{}

func (NopSink) Publish(context.Context, *models.Frame) error {
	return nil
}

type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, frame *models.Frame) error {
	s.log.Info("frame",
		logger.Uint64("seq", frame.Seq),
		logger.String("event", frame.Viewport.Event),
		logger.Int("zoom", frame.Viewport.Zoom),
		logger.String("bbox", frame.Viewport.Bounds.String()),
		logger.Int("markers", len(frame.Markers)),
		logger.Int("polygons", len(frame.Polygons)),
		logger.Int("added", frame.Diff.AddedMarkers+frame.Diff.AddedPolygons),
		logger.Int("removed", frame.Diff.RemovedMarkers+frame.Diff.RemovedPolygons),
	)
	return nil
}

// MultiSink publishes to every sink, even after one fails.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, frame *models.Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChannelSink delivers frames to subscribers without blocking the render.
// A subscriber that is not keeping up only sees the newest frame.
type ChannelSink struct {
	mu   sync.Mutex
	subs map[chan *models.Frame]struct{}
}

func NewChannelSink() *ChannelSink {
	return &ChannelSink{
		subs: make(map[chan *models.Frame]struct{}),
	}
}

// Subscribe returns a channel of frames and a function that ends the
// subscription and closes the channel.
func (s *ChannelSink) Subscribe() (<-chan *models.Frame, func()) {
	ch := make(chan *models.Frame, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *ChannelSink) Publish(_ context.Context, frame *models.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- frame:
			continue
		default:
		}
		// drop the stale frame so the newest one fits
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
	return nil
}
