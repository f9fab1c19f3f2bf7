package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/vcnkl/areamap/git"
)

const (
	FileName  = "areamap.yml"
	EnvPrefix = "AREAMAP_"
)

var ErrConfigNotFound = errors.New("areamap.yml not found (run `areamap init` or pass --config)")

func findConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(err, "failed to read config %s", explicit)
		}
		return filepath.Abs(explicit)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}

	candidates := []string{filepath.Join(cwd, FileName)}
	root, ok, err := git.Root(cwd)
	if err != nil {
		return "", err
	}
	if ok && root != cwd {
		candidates = append(candidates, filepath.Join(root, FileName))
	}

	for _, candidate := range candidates {
		if _, err = os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrConfigNotFound
}

func loadSettings(path string) (*Settings, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to read environment overrides")
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	settings.SetDefaults()
	return &settings, nil
}

// envKey maps AREAMAP_CLUSTER__MAX_ZOOM to cluster.max_zoom.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
