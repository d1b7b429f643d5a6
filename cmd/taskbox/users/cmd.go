package users

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/internal/cmdflags"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/andrebq/taskbox/store"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var st *store.Store
	var driver, dsn string
	return &cli.Command{
		Name:  "users",
		Usage: "Manage taskbox accounts",
		Flags: []cli.Flag{
			cmdflags.DatabaseDriver(&driver),
			cmdflags.Database(&dsn),
		},
		Before: func(ctx *cli.Context) error {
			var err error
			st, err = cmdflags.OpenStore(ctx.Context, driver, dsn)
			return err
		},
		After: func(ctx *cli.Context) error {
			if st == nil {
				return nil
			}
			return st.Close()
		},
		Subcommands: []*cli.Command{
			registerCmd(&st),
		},
	}
}

func registerCmd(st **store.Store) *cli.Command {
	var name, email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new account (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "Display name of the user",
				Destination: &name,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email used to logon",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			secret, err := authprogram.NewSecret()
			if err != nil {
				return err
			}
			tokens, err := newOfflineTokens(secret)
			if err != nil {
				return err
			}
			sessions := authprogram.NewSessions(*st, authprogram.NewHasher(1), tokens)
			profile, _, err := sessions.Register(ctx.Context, authprogram.RegisterInput{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("name", profile.Name).Str("email", profile.Email).Msg("User registered")
			return nil
		},
	}
}
