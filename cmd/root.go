package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "vkrss",
		Usage: "An RSS renderer for the VK newsfeed",
		Description: `Serves a VK user's newsfeed as an RSS 2.0 feed with embedded HTML.

		The VK access token is taken from the password of the HTTP Basic
		Auth credentials, so any feed reader that supports authenticated
		feeds can subscribe directly.

		Flags can generally be set via environment variables, e.g.:

		--port => VKRSS_PORT=8080
		--config => VKRSS_CONFIG=vkrss.toml
		`,
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
			migrateCmd(),
			rollbackCmd(),
			setupCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
