package cmd

import (
	"fmt"
	"strconv"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"vkrss/config"
)

// setupCmd interactively writes a configuration file.
func setupCmd() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Interactively write a configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "vkrss.toml",
				Usage:   "Path to write the TOML configuration file to",
				EnvVars: []string{"VKRSS_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := config.Default()

			hostname, err := prompt.New().Ask("Hostname:").Input(cfg.Server.Hostname)
			if err != nil {
				return err
			}
			cfg.Server.Hostname = hostname

			portInput, err := prompt.New().Ask("Port:").Input(strconv.Itoa(cfg.Server.Port))
			if err != nil {
				return err
			}
			port, err := strconv.Atoi(portInput)
			if err != nil {
				return fmt.Errorf("invalid port %q", portInput)
			}
			cfg.Server.Port = port

			mode, err := prompt.New().Ask("Capture mode:").Choose([]string{
				config.CaptureOff,
				config.CaptureRecord,
				config.CaptureReplay,
			})
			if err != nil {
				return err
			}
			cfg.Capture.Mode = mode

			if mode != config.CaptureOff {
				database, err := prompt.New().Ask("Capture database:").Input(cfg.Capture.Database)
				if err != nil {
					return err
				}
				cfg.Capture.Database = database
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			path := ctx.String("config")
			if err := cfg.Save(path); err != nil {
				return err
			}

			fmt.Printf("Wrote configuration to %s\n", path)
			return nil
		},
	}
}
