package cmd

import (
	"github.com/vcnkl/areamap/cmd/subcmds"

	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	return &cli.App{
		Name:    "areamap",
		Usage:   "Cluster community areas per map viewport and publish debounced frames",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to areamap.yml (default: working directory, then git root)",
			},
		},
		Commands: []*cli.Command{
			subcmds.InitCmd(),
			subcmds.RenderCmd(),
			subcmds.ServeCmd(),
		},
	}
}
