package actions

import (
	"github.com/vcnkl/areamap/cache/hashing"
	"github.com/vcnkl/areamap/cluster"
	"github.com/vcnkl/areamap/config"
	rexec "github.com/vcnkl/areamap/exec"
	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/render"
	"github.com/vcnkl/areamap/stores/areas"
	"github.com/vcnkl/areamap/stores/frames"
)

func loadIndex(cfg *config.Config) (*cluster.Index, string, error) {
	s := cfg.Settings()

	hash, err := hashing.HashFiles(cfg.DatasetPath())
	if err != nil {
		return nil, "", err
	}

	loaded, err := areas.NewStore(cfg.DatasetPath(), s.NameTemplate).Load()
	if err != nil {
		return nil, "", err
	}

	index := cluster.NewIndex(loaded, cluster.Options{
		MaxZoom:   s.Cluster.MaxZoom,
		MinPoints: s.Cluster.MinPoints,
		Radius:    s.Cluster.Radius,
		TileSize:  s.Cluster.TileSize,
	})
	return index, hash, nil
}

// buildSink assembles the configured frame consumers: the log, the frame
// file and, when set, the output command.
func buildSink(cfg *config.Config, log logger.Logger, extra ...render.Sink) render.Sink {
	out := cfg.Settings().Output

	sinks := render.MultiSink{
		render.NewLogSink(log.WithPrefix("frame")),
		frames.NewStore(cfg.OutputPath()),
	}
	if out.Command != "" {
		sinks = append(sinks, rexec.NewCommandSink(rexec.CommandSinkOptions{
			Command: out.Command,
			Shell:   out.Shell,
			WorkDir: cfg.Root(),
			Timeout: out.Timeout,
			Env:     out.Env,
			Dotenv:  out.Dotenv,
			Logger:  log,
		}))
	}
	return append(sinks, extra...)
}

func newRenderer(cfg *config.Config, index render.Index, hash string, sink render.Sink, opts render.Options) *render.Renderer {
	opts.MarkerStyle = cfg.MarkerStyle()
	opts.PolygonStyle = cfg.PolygonStyle()
	return render.NewRenderer(index, hash, sink, opts)
}
