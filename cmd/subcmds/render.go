package subcmds

import (
	"os"

	"github.com/vcnkl/areamap/actions"
	"github.com/vcnkl/areamap/models"

	"github.com/urfave/cli/v2"
)

func RenderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render a single frame and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bbox",
				Usage: "Viewport bounds as west,south,east,north",
			},
			&cli.StringFlag{
				Name:  "center",
				Usage: "Viewport center as lng,lat (default: map.center)",
			},
			&cli.IntFlag{
				Name:    "zoom",
				Aliases: []string{"z"},
				Value:   -1,
				Usage:   "Zoom level (default: map.zoom)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: actions.FormatText,
				Usage: "Output format: text (default), json",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Also write the frame JSON to this path",
			},
		},
		Action: func(ctx *cli.Context) error {
			if err := actions.ValidateFormat(ctx.String("format")); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}

			zoom := ctx.Int("zoom")
			if zoom < 0 {
				zoom = cfg.Zoom()
			}

			var vp models.Viewport
			switch {
			case ctx.IsSet("bbox"):
				bounds, err := models.ParseBBox(ctx.String("bbox"))
				if err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				vp = models.Viewport{Bounds: bounds, Zoom: zoom}
			default:
				center := cfg.Center()
				if ctx.IsSet("center") {
					if center, err = models.ParseLngLat(ctx.String("center")); err != nil {
						return cli.Exit("error: "+err.Error(), 1)
					}
				}
				m := cfg.Settings().Map
				vp = models.ViewportAt(center, zoom, m.Width, m.Height)
			}
			vp.Event = "cli"

			action := actions.NewRenderAction(cfg, log)
			frame, err := action.Execute(ctx.Context, vp, ctx.String("out"))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			if err = actions.WriteFrame(os.Stdout, frame, ctx.String("format")); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			return nil
		},
	}
}
