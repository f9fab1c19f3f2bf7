package subcmds

import (
	"os"
	"path/filepath"

	"github.com/vcnkl/areamap/actions"
	"github.com/vcnkl/areamap/config"
	"github.com/vcnkl/areamap/logger"

	"github.com/urfave/cli/v2"
)

func InitCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write areamap.yml and a sample dataset",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite existing files",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   actions.DefaultSampleCount,
				Usage:   "Number of sample areas",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := logger.New(logger.LevelFor(ctx.Bool("debug")))

			path := ctx.String("config")
			if path == "" {
				wd, err := os.Getwd()
				if err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				path = filepath.Join(wd, config.FileName)
			}
			cfg := config.NewAt(path, nil)

			action := actions.NewInitAction(cfg, log, ctx.Bool("force"), ctx.Int("count"))
			written, err := action.Execute(ctx.Context)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			log.Info("init completed", logger.Int("files", len(written)))
			return nil
		},
	}
}
