package serve

import (
	"github.com/andrebq/taskbox/cmd/taskbox/serve/api"
	"github.com/andrebq/taskbox/cmd/taskbox/serve/dogs"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Root command to start various taskbox services",
		Subcommands: []*cli.Command{
			api.Cmd(),
			dogs.Cmd(),
		},
	}
}
