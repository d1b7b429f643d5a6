package api

import (
	"time"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/internal/apiserver"
	"github.com/andrebq/taskbox/internal/cmdflags"
	"github.com/andrebq/taskbox/internal/httpserver"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:3000"
	var driver, dsn, secretEnvVar string
	var origins cli.StringSlice
	sessionTTL := 24 * time.Hour
	maxHashes := int64(4)
	insecureCookie := false
	cfg := apiserver.DefaultConfig()
	return &cli.Command{
		Name:  "api",
		Usage: "Start the task api",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.DatabaseDriver(&driver),
			cmdflags.Database(&dsn),
			cmdflags.SecretEnvVar(&secretEnvVar),
			&cli.DurationFlag{
				Name:        "session-ttl",
				Usage:       "How long a session token remains valid",
				EnvVars:     []string{"TASKBOX_SESSION_TTL"},
				Value:       sessionTTL,
				Destination: &sessionTTL,
			},
			&cli.Int64Flag{
				Name:        "max-concurrent-hashes",
				Usage:       "Password derivations allowed to run at the same time",
				Value:       maxHashes,
				Destination: &maxHashes,
			},
			&cli.BoolFlag{
				Name:        "insecure-cookie",
				Usage:       "Send the session cookie over plain http (development only)",
				EnvVars:     []string{"TASKBOX_INSECURE_COOKIE"},
				Value:       insecureCookie,
				Destination: &insecureCookie,
			},
			&cli.StringSliceFlag{
				Name:        "cors-origin",
				Usage:       "Origin allowed to make credentialed cross site requests",
				EnvVars:     []string{"TASKBOX_CORS_ORIGINS"},
				Destination: &origins,
			},
			&cli.IntFlag{
				Name:        "rate-limit",
				Usage:       "Requests per minute allowed for a single client ip (0 disables)",
				Value:       cfg.RequestsPerMinute,
				Destination: &cfg.RequestsPerMinute,
			},
			&cli.IntFlag{
				Name:        "auth-rate-limit",
				Usage:       "Register and logon requests per minute allowed for a single client ip (0 disables)",
				Value:       cfg.AuthRequestsPerMinute,
				Destination: &cfg.AuthRequestsPerMinute,
			},
		},
		Action: func(ctx *cli.Context) error {
			secret, err := authprogram.SecretFromEnv(secretEnvVar, nil, nil)
			if err != nil {
				return err
			}
			defer secret.Zero()
			st, err := cmdflags.OpenStore(ctx.Context, driver, dsn)
			if err != nil {
				return err
			}
			defer st.Close()
			revoked, err := authprogram.InMemoryTokenStore(ctx.Context, sessionTTL)
			if err != nil {
				return err
			}
			tokens, err := authprogram.NewTokens(secret, sessionTTL, revoked)
			if err != nil {
				return err
			}

			cfg.Store = st
			cfg.Sessions = authprogram.NewSessions(st, authprogram.NewHasher(maxHashes), tokens)
			cfg.Logger = logutil.GetOrDefault(ctx.Context)
			cfg.InsecureCookie = insecureCookie
			cfg.CORS.AllowedOrigins = origins.Value()
			cfg.CORS.MaxAge = 300

			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("bind", bindAddr).Str("driver", driver).Dur("sessionTTL", sessionTTL).Msg("Starting task api")
			return httpserver.Serve(ctx.Context, bindAddr, apiserver.New(cfg))
		},
	}
}
