package keygen

import (
	"fmt"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: fmt.Sprintf("Print a random token signing secret, suitable for %v", authprogram.SecretEnvVar),
		Action: func(ctx *cli.Context) error {
			secret, err := authprogram.NewSecret()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(ctx.App.Writer, secret)
			return err
		},
	}
}
