package subcmds

import (
	"github.com/vcnkl/areamap/config"
	"github.com/vcnkl/areamap/logger"

	"github.com/urfave/cli/v2"
)

func setup(ctx *cli.Context) (*config.Config, logger.Logger, error) {
	log := logger.New(logger.LevelFor(ctx.Bool("debug")))

	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, nil, cli.Exit("error: "+err.Error(), 1)
	}
	log.Debug("loaded config", logger.String("path", cfg.Path()))

	return cfg, log, nil
}
