package actions

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/vcnkl/areamap/config"
	"github.com/vcnkl/areamap/logger"
	"github.com/vcnkl/areamap/models"
	"github.com/vcnkl/areamap/stores/areas"
)

const (
	DefaultSampleCount = 50

	sampleSpacing = 0.01
	sampleSize    = 0.004
)

type InitAction struct {
	config *config.Config
	log    logger.Logger
	force  bool
	count  int
}

// NewInitAction prepares a project rooted at cfg.Root(). cfg is usually built
// with config.New since no file exists yet.
func NewInitAction(cfg *config.Config, log logger.Logger, force bool, count int) *InitAction {
	return &InitAction{
		config: cfg,
		log:    log,
		force:  force,
		count:  count,
	}
}

func (a *InitAction) Execute(_ context.Context) ([]string, error) {
	var written []string

	if err := a.writeFile(a.config.Path(), []byte(a.config.Settings().YAML())); err != nil {
		return written, err
	}
	written = append(written, a.config.Path())

	if err := a.writeDataset(); err != nil {
		return written, err
	}
	written = append(written, a.config.DatasetPath())

	return written, nil
}

func (a *InitAction) writeFile(path string, data []byte) error {
	if !a.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	a.log.Info("wrote file", logger.String("path", path))
	return nil
}

func (a *InitAction) writeDataset() error {
	path := a.config.DatasetPath()
	if !a.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	start := time.Now()
	records := SampleRecords(a.config.Center(), a.count)
	if err := areas.NewStore(path, a.config.Settings().NameTemplate).Save(records); err != nil {
		return err
	}

	a.log.Info("wrote sample dataset",
		logger.String("path", path),
		logger.Int("areas", len(records)),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// SampleRecords lays count small squares on a grid centred on center.
func SampleRecords(center models.LngLat, count int) []areas.Record {
	if count <= 0 {
		return []areas.Record{}
	}

	cols := int(math.Ceil(math.Sqrt(float64(count))))
	rows := (count + cols - 1) / cols
	west := center.Lng - float64(cols-1)*sampleSpacing/2
	south := center.Lat - float64(rows-1)*sampleSpacing/2

	records := make([]areas.Record, count)
	for i := range records {
		origin := models.LngLat{
			Lng: west + float64(i%cols)*sampleSpacing,
			Lat: south + float64(i/cols)*sampleSpacing,
		}
		records[i] = areas.SquareRecord(origin, sampleSize)
	}
	return records
}
