package exec

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vcnkl/areamap/models"
)

// ComposeEnv builds the environment of a frame command: the process
// environment, the configured variables, dotenv files relative to root and the
// frame summary, later entries overriding earlier ones.
func ComposeEnv(root string, vars map[string]string, dotenv []string, frame *models.Frame) []string {
	env := os.Environ()

	var extra []string
	for k, v := range vars {
		extra = append(extra, k+"="+v)
	}

	for _, file := range dotenv {
		pattern := file
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, path := range matches {
			fileVars, err := LoadDotenv(path)
			if err != nil {
				continue
			}
			for k, v := range fileVars {
				extra = append(extra, k+"="+v)
			}
		}
	}

	if frame != nil {
		extra = append(extra,
			"AREAMAP_FRAME_ID="+frame.ID,
			"AREAMAP_SEQ="+strconv.FormatUint(frame.Seq, 10),
			"AREAMAP_ZOOM="+strconv.Itoa(frame.Viewport.Zoom),
			"AREAMAP_BBOX="+frame.Viewport.Bounds.String(),
			"AREAMAP_MARKERS="+strconv.Itoa(len(frame.Markers)),
			"AREAMAP_POLYGONS="+strconv.Itoa(len(frame.Polygons)),
		)
	}

	return MergeEnv(env, extra)
}

func LoadDotenv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		result[key] = value
	}

	return result, scanner.Err()
}

// MergeEnv applies override on top of base. Keys keep the position of their
// first appearance.
func MergeEnv(base, override []string) []string {
	index := make(map[string]int)
	result := make([]string, 0, len(base)+len(override))

	for _, list := range [][]string{base, override} {
		for _, e := range list {
			key, _, ok := strings.Cut(e, "=")
			if !ok {
				continue
			}
			if i, seen := index[key]; seen {
				result[i] = e
				continue
			}
			index[key] = len(result)
			result = append(result, e)
		}
	}

	return result
}
