package subcmds

import (
	"github.com/vcnkl/areamap/actions"
	"github.com/vcnkl/areamap/logger"

	"github.com/urfave/cli/v2"
)

func ServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Re-render on viewport and dataset changes, serving frames over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (default: server.addr, \"off\" disables)",
			},
			&cli.BoolFlag{
				Name:  "leading",
				Usage: "Render on the first event of a burst instead of the last",
			},
			&cli.DurationFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Quiet period between renders (default: debounce.wait)",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}

			addr := cfg.Settings().Server.Addr
			if ctx.IsSet("addr") {
				addr = ctx.String("addr")
			}
			if addr == "off" {
				addr = ""
			}

			action := actions.NewServeAction(cfg, log, actions.ServeOptions{
				Addr:    addr,
				Leading: ctx.Bool("leading"),
				Wait:    ctx.Duration("wait"),
			})
			result, err := action.Execute(ctx.Context)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			log.Info("serve stopped",
				logger.Int("triggers", result.Triggers),
				logger.Int("renders", result.Renders),
				logger.Int("failed", len(result.Failed)),
				logger.Duration("duration", result.Duration))

			return nil
		},
	}
}
