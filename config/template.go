package config

import (
	"fmt"
	"strconv"
)

// YAML renders settings in the layout `areamap init` writes.
func (s *Settings) YAML() string {
	return fmt.Sprintf(`dataset: %s
name_template: %s

map:
  center: [%s, %s]
  zoom: %d
  width: %d
  height: %d

debounce:
  wait: %s
  leading: %t

cluster:
  max_zoom: %d
  min_points: %d
  radius: %d
  tile_size: %d

style:
  marker:
    color: %s
    text_color: %s
    size: %d
  polygon:
    fill_color: %s
    stroke_color: %s
    border_weight: %d

server:
  addr: %s

output:
  path: %s
  command: %s
  shell: %s
  timeout: %s

viewport:
  path: %s
`,
		quote(s.Dataset), quote(s.NameTemplate),
		formatFloat(s.Map.Center[0]), formatFloat(s.Map.Center[1]), *s.Map.Zoom, s.Map.Width, s.Map.Height,
		s.Debounce.Wait, s.Debounce.Leading,
		s.Cluster.MaxZoom, s.Cluster.MinPoints, s.Cluster.Radius, s.Cluster.TileSize,
		quote(s.Style.Marker.Color), quote(s.Style.Marker.TextColor), s.Style.Marker.Size,
		quote(s.Style.Polygon.FillColor), quote(s.Style.Polygon.StrokeColor), s.Style.Polygon.BorderWeight,
		quote(s.Server.Addr),
		quote(s.Output.Path), quote(s.Output.Command), quote(s.Output.Shell), s.Output.Timeout,
		quote(s.Viewport.Path),
	)
}

func quote(s string) string {
	return strconv.Quote(s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
