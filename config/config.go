package config

import (
	"fmt"
	"path/filepath"

	"github.com/vcnkl/areamap/models"
	"github.com/vcnkl/areamap/stores/areas"
)

type Config struct {
	root     string
	path     string
	settings *Settings
}

func Load(explicitPath string) (*Config, error) {
	path, err := findConfigPath(explicitPath)
	if err != nil {
		return nil, err
	}

	settings, err := loadSettings(path)
	if err != nil {
		return nil, err
	}

	cfg := NewAt(path, settings)

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New builds a Config rooted at root. Relative paths in settings resolve
// against root.
func New(root string, settings *Settings) *Config {
	if settings == nil {
		settings = &Settings{}
	}
	settings.SetDefaults()

	return &Config{
		root:     root,
		path:     filepath.Join(root, FileName),
		settings: settings,
	}
}

// NewAt builds a Config for the file at path, rooted at its directory.
func NewAt(path string, settings *Settings) *Config {
	cfg := New(filepath.Dir(path), settings)
	cfg.path = path
	return cfg
}

func (c *Config) Validate() error {
	s := c.settings

	if len(s.Map.Center) != 2 {
		return fmt.Errorf("map.center must have exactly two values (lng, lat), got %d", len(s.Map.Center))
	}
	if !c.Center().Valid() {
		return fmt.Errorf("map.center out of range: %s", c.Center())
	}
	if zoom := *s.Map.Zoom; zoom < 0 || zoom > 24 {
		return fmt.Errorf("map.zoom %d outside [0, 24]", zoom)
	}
	if s.Map.Width < 0 || s.Map.Height < 0 {
		return fmt.Errorf("map.width and map.height must be positive")
	}
	if s.Debounce.Wait < 0 {
		return fmt.Errorf("debounce.wait must not be negative, got %s", s.Debounce.Wait)
	}
	if err := areas.ValidateNameTemplate(s.NameTemplate); err != nil {
		return fmt.Errorf("name_template: %w", err)
	}
	if s.Cluster.MinPoints < 1 {
		return fmt.Errorf("cluster.min_points must be at least 1, got %d", s.Cluster.MinPoints)
	}
	return nil
}

func (c *Config) Root() string {
	return c.root
}

func (c *Config) Path() string {
	return c.path
}

func (c *Config) Settings() *Settings {
	return c.settings
}

func (c *Config) DatasetPath() string {
	return c.resolve(c.settings.Dataset)
}

func (c *Config) OutputPath() string {
	return c.resolve(c.settings.Output.Path)
}

// ViewportPath is empty when no viewport file is configured.
func (c *Config) ViewportPath() string {
	if c.settings.Viewport.Path == "" {
		return ""
	}
	return c.resolve(c.settings.Viewport.Path)
}

func (c *Config) Center() models.LngLat {
	center := c.settings.Map.Center
	if len(center) != 2 {
		return models.LngLat{}
	}
	return models.LngLat{Lng: center[0], Lat: center[1]}
}

func (c *Config) Zoom() int {
	return *c.settings.Map.Zoom
}

func (c *Config) InitialViewport() models.Viewport {
	vp := models.ViewportAt(c.Center(), c.Zoom(), c.settings.Map.Width, c.settings.Map.Height)
	vp.Event = "init"
	return vp
}

func (c *Config) MarkerStyle() models.MarkerStyle {
	m := c.settings.Style.Marker
	return models.MarkerStyle{
		Color:     m.Color,
		TextColor: m.TextColor,
		Size:      m.Size,
	}
}

func (c *Config) PolygonStyle() models.PolygonStyle {
	p := c.settings.Style.Polygon
	return models.PolygonStyle{
		FillColor:    p.FillColor,
		StrokeColor:  p.StrokeColor,
		BorderWeight: p.BorderWeight,
	}
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}
