package config

import "time"

const (
	DefaultNameTemplate = "Community %d"
	DefaultZoom         = 14
	DefaultWait         = 200 * time.Millisecond
)

var DefaultCenter = []float64{116.467987, 39.992613}

type Settings struct {
	Dataset      string         `koanf:"dataset"`
	NameTemplate string         `koanf:"name_template"`
	Map          MapConfig      `koanf:"map"`
	Debounce     DebounceConfig `koanf:"debounce"`
	Cluster      ClusterConfig  `koanf:"cluster"`
	Style        StyleConfig    `koanf:"style"`
	Server       ServerConfig   `koanf:"server"`
	Output       OutputConfig   `koanf:"output"`
	Viewport     ViewportConfig `koanf:"viewport"`
}

type MapConfig struct {
	Center []float64 `koanf:"center"`
	Zoom   *int      `koanf:"zoom"`
	Width  int       `koanf:"width"`
	Height int       `koanf:"height"`
}

type DebounceConfig struct {
	Wait    time.Duration `koanf:"wait"`
	Leading bool          `koanf:"leading"`
}

type ClusterConfig struct {
	MaxZoom   int `koanf:"max_zoom"`
	MinPoints int `koanf:"min_points"`
	Radius    int `koanf:"radius"`
	TileSize  int `koanf:"tile_size"`
}

type StyleConfig struct {
	Marker  MarkerStyleConfig  `koanf:"marker"`
	Polygon PolygonStyleConfig `koanf:"polygon"`
}

type MarkerStyleConfig struct {
	Color     string `koanf:"color"`
	TextColor string `koanf:"text_color"`
	Size      int    `koanf:"size"`
}

type PolygonStyleConfig struct {
	FillColor    string `koanf:"fill_color"`
	StrokeColor  string `koanf:"stroke_color"`
	BorderWeight int    `koanf:"border_weight"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type OutputConfig struct {
	Path    string            `koanf:"path"`
	Command string            `koanf:"command"`
	Shell   string            `koanf:"shell"`
	Timeout time.Duration     `koanf:"timeout"`
	Env     map[string]string `koanf:"env"`
	Dotenv  []string          `koanf:"dotenv"`
}

type ViewportConfig struct {
	Path string `koanf:"path"`
}

func (s *Settings) SetDefaults() {
	if s.Dataset == "" {
		s.Dataset = "areas.json"
	}
	if s.NameTemplate == "" {
		s.NameTemplate = DefaultNameTemplate
	}
	s.Map.SetDefaults()
	s.Debounce.SetDefaults()
	s.Cluster.SetDefaults()
	s.Style.SetDefaults()
	s.Output.SetDefaults()
	if s.Server.Addr == "" {
		s.Server.Addr = ":8080"
	}
}

func (m *MapConfig) SetDefaults() {
	if len(m.Center) == 0 {
		m.Center = append([]float64(nil), DefaultCenter...)
	}
	if m.Zoom == nil {
		zoom := DefaultZoom
		m.Zoom = &zoom
	}
	if m.Width == 0 {
		m.Width = 1024
	}
	if m.Height == 0 {
		m.Height = 768
	}
}

func (d *DebounceConfig) SetDefaults() {
	if d.Wait == 0 {
		d.Wait = DefaultWait
	}
}

func (c *ClusterConfig) SetDefaults() {
	if c.MaxZoom == 0 {
		c.MaxZoom = 16
	}
	if c.MinPoints == 0 {
		c.MinPoints = 2
	}
	if c.Radius == 0 {
		c.Radius = 40
	}
	if c.TileSize == 0 {
		c.TileSize = 512
	}
}

func (s *StyleConfig) SetDefaults() {
	if s.Marker.Color == "" {
		s.Marker.Color = "green"
	}
	if s.Marker.TextColor == "" {
		s.Marker.TextColor = "#fff"
	}
	if s.Marker.Size == 0 {
		s.Marker.Size = 32
	}
	if s.Polygon.FillColor == "" {
		s.Polygon.FillColor = "rgba(255, 0, 0, 0.2)"
	}
	if s.Polygon.StrokeColor == "" {
		s.Polygon.StrokeColor = "rgba(255, 0, 0, 1)"
	}
	if s.Polygon.BorderWeight == 0 {
		s.Polygon.BorderWeight = 2
	}
}

func (o *OutputConfig) SetDefaults() {
	if o.Path == "" {
		o.Path = ".areamap/frame.json"
	}
	if o.Shell == "" {
		o.Shell = "/bin/sh"
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Env == nil {
		o.Env = make(map[string]string)
	}
	if o.Dotenv == nil {
		o.Dotenv = []string{}
	}
}
