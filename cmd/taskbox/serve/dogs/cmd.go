package dogs

import (
	"github.com/andrebq/taskbox/dogs"
	"github.com/andrebq/taskbox/dogs/api"
	"github.com/andrebq/taskbox/internal/apiserver"
	"github.com/andrebq/taskbox/internal/cmdflags"
	"github.com/andrebq/taskbox/internal/httpserver"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:3001"
	return &cli.Command{
		Name:  "dogs",
		Usage: "Start the dogs adoption demo",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
		},
		Action: func(ctx *cli.Context) error {
			catalogue, err := dogs.Load()
			if err != nil {
				return err
			}
			cfg := apiserver.DefaultConfig()
			cfg.Logger = logutil.GetOrDefault(ctx.Context)
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("bind", bindAddr).Int("dogs", len(catalogue.List())).Msg("Starting dogs demo")
			return httpserver.Serve(ctx.Context, bindAddr, apiserver.Stack(cfg, api.Router(catalogue)))
		},
	}
}
