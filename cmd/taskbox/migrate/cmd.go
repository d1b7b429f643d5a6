package migrate

import (
	"github.com/andrebq/taskbox/internal/cmdflags"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var driver, dsn string
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit",
		Flags: []cli.Flag{
			cmdflags.DatabaseDriver(&driver),
			cmdflags.Database(&dsn),
		},
		Action: func(ctx *cli.Context) error {
			st, err := cmdflags.OpenStore(ctx.Context, driver, dsn)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("driver", driver).Msg("Database is up to date")
			return st.Close()
		},
	}
}
