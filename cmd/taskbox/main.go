package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrebq/taskbox/cmd/taskbox/keygen"
	"github.com/andrebq/taskbox/cmd/taskbox/migrate"
	"github.com/andrebq/taskbox/cmd/taskbox/serve"
	"github.com/andrebq/taskbox/cmd/taskbox/users"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	logLevel := "info"
	prettyLog := false
	app := &cli.App{
		Name:  "taskbox",
		Usage: "Keep track of your tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Minimum level of the messages that should be logged",
				EnvVars:     []string{"TASKBOX_LOG_LEVEL"},
				Value:       logLevel,
				Destination: &logLevel,
			},
			&cli.BoolFlag{
				Name:        "pretty-log",
				Usage:       "Write human friendly logs instead of JSON",
				EnvVars:     []string{"TASKBOX_PRETTY_LOG"},
				Value:       prettyLog,
				Destination: &prettyLog,
			},
		},
		Before: func(ctx *cli.Context) error {
			logger, err := logutil.Setup(logLevel, prettyLog)
			if err != nil {
				return err
			}
			ctx.Context = logutil.WithLogger(ctx.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			migrate.Cmd(),
			users.Cmd(),
			keygen.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
