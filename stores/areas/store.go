package areas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vcnkl/areamap/models"
)

const DefaultNameTemplate = "Community %d"

// Record is one entry of a dataset file. Keys other than lnglat and name are
// kept as area properties.
type Record struct {
	LngLat [][]float64 `json:"lnglat"`
	Name   string      `json:"name,omitempty"`
}

type RecordError struct {
	Index  int
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}

// ValidateNameTemplate reports whether tmpl holds exactly one %d verb and no
// other formatting verbs. A literal percent sign is written as %%.
func ValidateNameTemplate(tmpl string) error {
	rest := strings.ReplaceAll(tmpl, "%%", "")
	if strings.Count(rest, "%d") != 1 || strings.Count(rest, "%") != 1 {
		return fmt.Errorf("name template %q must contain exactly one %%d and no other verbs", tmpl)
	}
	return nil
}

// FormatName names the area at index. Templates without a usable %d get the
// index appended.
func FormatName(tmpl string, index int) string {
	if ValidateNameTemplate(tmpl) != nil {
		return tmpl + " " + strconv.Itoa(index)
	}
	return fmt.Sprintf(tmpl, index)
}

type Store struct {
	path         string
	nameTemplate string
}

func NewStore(path, nameTemplate string) *Store {
	if nameTemplate == "" {
		nameTemplate = DefaultNameTemplate
	}
	return &Store{
		path:         path,
		nameTemplate: nameTemplate,
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() ([]*models.Area, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", s.path)
	}

	areas, err := Parse(data, s.nameTemplate)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset %s", s.path)
	}
	return areas, nil
}

func (s *Store) Save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := s.path + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset file %s: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename dataset file: %w", err)
	}

	return nil
}

func Parse(data []byte, nameTemplate string) ([]*models.Area, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	areas := make([]*models.Area, 0, len(raw))
	for i, msg := range raw {
		area, err := parseRecord(i, msg, nameTemplate)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, nil
}

func parseRecord(index int, msg json.RawMessage, nameTemplate string) (*models.Area, error) {
	var rec Record
	if err := json.Unmarshal(msg, &rec); err != nil {
		return nil, &RecordError{Index: index, Reason: err.Error()}
	}

	var props map[string]any
	if err := json.Unmarshal(msg, &props); err != nil {
		return nil, &RecordError{Index: index, Reason: err.Error()}
	}
	delete(props, "lnglat")
	delete(props, "name")
	if len(props) == 0 {
		props = nil
	}

	if len(rec.LngLat) == 0 {
		return nil, &RecordError{Index: index, Reason: "lnglat has no vertices"}
	}

	path := make([]models.LngLat, len(rec.LngLat))
	for j, vertex := range rec.LngLat {
		if len(vertex) != 2 {
			return nil, &RecordError{Index: index, Reason: fmt.Sprintf("vertex %d has %d values, expected 2", j, len(vertex))}
		}
		p := models.LngLat{Lng: vertex[0], Lat: vertex[1]}
		if !p.Valid() {
			return nil, &RecordError{Index: index, Reason: fmt.Sprintf("vertex %d out of range: %s", j, p)}
		}
		path[j] = p
	}

	name := rec.Name
	if name == "" {
		name = FormatName(nameTemplate, index)
	}

	return &models.Area{
		Index:      index,
		Name:       name,
		Path:       path,
		Anchor:     path[0],
		Properties: props,
	}, nil
}

// SquareRecord builds a closed square ring of side size (in degrees) whose
// south-west corner is at origin.
func SquareRecord(origin models.LngLat, size float64) Record {
	return Record{
		LngLat: [][]float64{
			{origin.Lng, origin.Lat},
			{origin.Lng + size, origin.Lat},
			{origin.Lng + size, origin.Lat + size},
			{origin.Lng, origin.Lat + size},
			{origin.Lng, origin.Lat},
		},
	}
}
