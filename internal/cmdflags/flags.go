package cmdflags

import (
	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/store"
	"github.com/urfave/cli/v2"
)

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Usage:       "Address to bind the http server",
		EnvVars:     []string{"TASKBOX_BIND"},
		Value:       *out,
		Destination: out,
	}
}

func DatabaseDriver(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = string(store.SQLite)
	}
	return &cli.StringFlag{
		Name:        "db-driver",
		Usage:       "Database driver, either sqlite3 or pgx",
		EnvVars:     []string{"TASKBOX_DB_DRIVER"},
		Value:       *out,
		Destination: out,
	}
}

func Database(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = "taskbox.db"
	}
	return &cli.StringFlag{
		Name:        "db",
		Aliases:     []string{"database"},
		Usage:       "Path to the SQLite file or PostgreSQL connection string",
		EnvVars:     []string{"TASKBOX_DB"},
		Value:       *out,
		Destination: out,
	}
}

func SecretEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = authprogram.SecretEnvVar
	}
	return &cli.StringFlag{
		Name:        "secret-envvar-name",
		Usage:       "Name of the environment variable that holds the token signing secret. The secret itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}
