package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vcnkl/areamap/config"
	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
	"github.com/vcnkl/areamap/render"
	"github.com/vcnkl/areamap/stores/frames"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type RenderAction struct {
	config *config.Config
	log    logger.Logger
}

func NewRenderAction(cfg *config.Config, log logger.Logger) *RenderAction {
	return &RenderAction{
		config: cfg,
		log:    log,
	}
}

// Execute renders vp once and publishes the frame to the configured sinks.
// When out is set the frame is also written there.
func (a *RenderAction) Execute(ctx context.Context, vp models.Viewport, out string) (*models.Frame, error) {
	index, hash, err := loadIndex(a.config)
	if err != nil {
		return nil, err
	}

	var extra []render.Sink
	if out != "" {
		extra = append(extra, frames.NewStore(out))
	}

	r := newRenderer(a.config, index, hash, buildSink(a.config, a.log, extra...), render.Options{Logger: a.log})
	return r.Render(ctx, vp)
}

// ValidateFormat rejects output formats WriteFrame cannot write. Callers
// check it before rendering so a bad format never reaches the sinks.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, "":
		return nil
	}
	return fmt.Errorf("unknown format %q (expected text or json)", format)
}

func WriteFrame(w io.Writer, frame *models.Frame, format string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(frame)
	}

	fmt.Fprintf(w, "frame %d  zoom %d  bbox %s\n", frame.Seq, frame.Viewport.Zoom, frame.Viewport.Bounds)
	fmt.Fprintf(w, "%d clusters, %d areas\n", len(frame.Markers), len(frame.Polygons))
	for _, m := range frame.Markers {
		fmt.Fprintf(w, "  cluster %s  %s  count %d\n", m.ClusterID, m.Position, m.Count)
	}
	for _, p := range frame.Polygons {
		fmt.Fprintf(w, "  area %d  %s  %d vertices\n", p.Index, p.Name, len(p.Path))
	}
	return nil
}
