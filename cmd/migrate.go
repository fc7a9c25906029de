package cmd

import (
	"github.com/urfave/cli/v2"

	"vkrss/db"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending capture database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "capture-database",
				Value:   "captures.db",
				Usage:   "Path to the SQLite capture database",
				EnvVars: []string{"VKRSS_CAPTURE_DATABASE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			return db.Migrate(ctx.String("capture-database"))
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:  "rollback",
		Usage: "Roll back the most recent capture database migration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "capture-database",
				Value:   "captures.db",
				Usage:   "Path to the SQLite capture database",
				EnvVars: []string{"VKRSS_CAPTURE_DATABASE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			return db.Rollback(ctx.String("capture-database"))
		},
	}
}
