package actions

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/vcnkl/areamap/cache/hashing"
	"github.com/vcnkl/areamap/cluster"
	"github.com/vcnkl/areamap/config"
	"github.com/vcnkl/areamap/debounce"
	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
	"github.com/vcnkl/areamap/render"
	"github.com/vcnkl/areamap/server"
	"github.com/vcnkl/areamap/watcher"
)

type ServeOptions struct {
	// Addr disables the HTTP server when empty.
	Addr    string
	Leading bool
	Wait    time.Duration
	Clock   clockwork.Clock
}

type ServeAction struct {
	config *config.Config
	log    logger.Logger
	opts   ServeOptions
}

func NewServeAction(cfg *config.Config, log logger.Logger, opts ServeOptions) *ServeAction {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &ServeAction{
		config: cfg,
		log:    log,
		opts:   opts,
	}
}

// Execute renders the initial viewport, then re-renders on every debounced
// viewport event until ctx is done.
func (a *ServeAction) Execute(ctx context.Context) (*models.Result, error) {
	start := a.opts.Clock.Now()

	s, err := newSession(ctx, a.config, a.log, a.opts)
	if err != nil {
		return nil, err
	}
	defer s.debouncer.Cancel()

	s.renderNow(a.config.InitialViewport())

	g, gctx := errgroup.WithContext(ctx)

	if a.opts.Addr != "" {
		srv := server.New(s, server.Options{
			Addr:   a.opts.Addr,
			Width:  a.config.Settings().Map.Width,
			Height: a.config.Settings().Map.Height,
			Logger: a.log.WithPrefix("http"),
		})
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
	}

	if path := a.config.ViewportPath(); path != "" {
		if err = s.watch(gctx, g, path, s.viewportChanged); err != nil {
			return nil, err
		}
	}
	if err = s.watch(gctx, g, a.config.DatasetPath(), s.datasetChanged); err != nil {
		return nil, err
	}

	a.log.Info("serving",
		logger.String("mode", s.debouncer.Mode().String()),
		logger.Duration("wait", s.debouncer.Wait()),
		logger.String("addr", a.opts.Addr))

	err = g.Wait()
	s.debouncer.Cancel()

	result := s.result()
	result.Duration = a.opts.Clock.Since(start)
	return result, err
}

// session is the state shared by the HTTP server, the watchers and the
// debounced render.
type session struct {
	ctx       context.Context
	config    *config.Config
	log       logger.Logger
	clock     clockwork.Clock
	renderer  *render.Renderer
	frames    *render.ChannelSink
	debouncer *debounce.Debouncer[models.Viewport]

	mu       sync.Mutex
	index    *cluster.Index
	last     models.Viewport
	triggers int
	renders  int
	failed   []models.FailedRender
}

func newSession(ctx context.Context, cfg *config.Config, log logger.Logger, opts ServeOptions) (*session, error) {
	index, hash, err := loadIndex(cfg)
	if err != nil {
		return nil, err
	}

	wait := opts.Wait
	if wait == 0 {
		wait = cfg.Settings().Debounce.Wait
	}
	mode := debounce.Trailing
	if opts.Leading || cfg.Settings().Debounce.Leading {
		mode = debounce.Leading
	}

	s := &session{
		ctx:    ctx,
		config: cfg,
		log:    log,
		clock:  opts.Clock,
		frames: render.NewChannelSink(),
		index:  index,
	}
	s.renderer = newRenderer(cfg, index, hash, buildSink(cfg, log, s.frames), render.Options{
		Clock:  opts.Clock,
		Logger: log.WithPrefix("render"),
	})
	s.debouncer = debounce.New(s.renderNow, wait,
		debounce.WithMode(mode),
		debounce.WithClock(opts.Clock))

	return s, nil
}

func (s *session) Trigger(vp models.Viewport) {
	s.mu.Lock()
	s.triggers++
	s.mu.Unlock()

	s.log.Debug("viewport event",
		logger.String("event", vp.Event),
		logger.Int("zoom", vp.Zoom),
		logger.String("bbox", vp.Bounds.String()))
	s.debouncer.Trigger(vp)
}

func (s *session) Current() *models.Frame {
	return s.renderer.Current()
}

func (s *session) Index() server.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *session) Subscribe() (<-chan *models.Frame, func()) {
	return s.frames.Subscribe()
}

func (s *session) renderNow(vp models.Viewport) {
	_, err := s.renderer.Render(s.ctx, vp)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = vp
	s.renders++
	if err != nil {
		s.log.Error("render failed", logger.Err(err))
		s.failed = append(s.failed, models.FailedRender{Viewport: vp, Error: err})
	}
}

func (s *session) watch(ctx context.Context, g *errgroup.Group, path string, fn func(string)) error {
	w, err := watcher.NewWatcher([]string{path}, watcher.Options{
		Logger: s.log.WithPrefix("watcher"),
	})
	if err != nil {
		return err
	}
	w.OnChange(fn)

	g.Go(func() error {
		defer w.Stop()
		return w.Start(ctx)
	})
	return nil
}

func (s *session) viewportChanged(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("failed to read viewport file", logger.String("path", path), logger.Err(err))
		return
	}

	var req models.ViewportRequest
	if err = json.Unmarshal(data, &req); err != nil {
		s.log.Warn("failed to parse viewport file", logger.String("path", path), logger.Err(err))
		return
	}

	m := s.config.Settings().Map
	vp, err := req.Viewport(m.Width, m.Height, "file")
	if err != nil {
		s.log.Warn("invalid viewport file", logger.String("path", path), logger.Err(err))
		return
	}
	s.Trigger(vp)
}

// datasetChanged reloads the dataset and re-renders the last viewport. Writes
// that leave the content unchanged are ignored.
func (s *session) datasetChanged(_ string) {
	path := s.config.DatasetPath()
	hash, err := hashing.HashFiles(path)
	if err != nil {
		s.log.Warn("failed to hash dataset", logger.String("path", path), logger.Err(err))
		return
	}
	if hash == s.renderer.DatasetHash() {
		s.log.Debug("dataset unchanged", logger.String("path", path))
		return
	}

	index, hash, err := loadIndex(s.config)
	if err != nil {
		s.log.Error("failed to reload dataset", logger.Err(err))
		return
	}

	s.mu.Lock()
	s.index = index
	vp := s.last
	s.mu.Unlock()

	s.renderer.SetIndex(index, hash)
	s.log.Info("dataset reloaded", logger.Int("areas", index.Len()), logger.String("hash", hash))

	vp.Event = "reload"
	s.Trigger(vp)
}

func (s *session) result() *models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &models.Result{
		Triggers: s.triggers,
		Renders:  s.renders,
		Failed:   append([]models.FailedRender(nil), s.failed...),
	}
}
